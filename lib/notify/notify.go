package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"stine-client/lib/scrapers/stine"
	"stine-client/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("notify")

// Event selects what a notification run checks for.
type Event string

const (
	EventExamResults         Event = "exam-results"
	EventRegistrationPeriods Event = "registration-periods"
	EventDocuments           Event = "documents"
)

var AllEvents = []Event{EventExamResults, EventRegistrationPeriods, EventDocuments}

func ParseEvent(s string) (Event, error) {
	for _, e := range AllEvents {
		if string(e) == strings.ToLower(strings.TrimSpace(s)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown event %q, expected one of %v", s, AllEvents)
}

// Checker fetches the current portal state, diffs it against the
// snapshot store and mails one message per detected change set.
type Checker struct {
	Client *stine.Client
	Store  Store
	Mailer Mailer
}

// Run executes the given checks. An empty event list runs all of
// them.
func (c Checker) Run(ctx context.Context, events []Event) error {
	ctx, span := tracer.Start(ctx, "checker:Run")
	defer span.End()

	if len(events) == 0 {
		events = AllEvents
	}

	for _, event := range events {
		var err error
		switch event {
		case EventExamResults:
			err = c.checkExamResults(ctx)
		case EventRegistrationPeriods:
			err = c.checkRegistrationPeriods(ctx)
		case EventDocuments:
			err = c.checkDocuments(ctx)
		default:
			err = fmt.Errorf("unknown event %q", event)
		}
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("checking %s: %w", event, err)
		}
	}
	return nil
}

func (c Checker) checkDocuments(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "checker:documents")
	defer span.End()

	latest, err := c.Client.Documents(ctx)
	if err != nil {
		return err
	}

	old, ok, err := c.Store.Documents(ctx, c.Client.Language())
	if err != nil {
		return err
	}
	if ok {
		fresh := newDocuments(old, latest)
		if len(fresh) > 0 {
			slog.Debug("document list changed", "diff", cmp.Diff(old, latest))
			if err := c.Mailer.Send(documentsMessage(fresh)); err != nil {
				return err
			}
		} else {
			slog.Info("no new documents found")
		}
	}
	return c.Store.SaveDocuments(ctx, c.Client.Language(), latest)
}

func (c Checker) checkExamResults(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "checker:examResults")
	defer span.End()

	results, err := c.Client.AllSemesterResults(ctx, stine.FullLazy)
	if err != nil {
		return err
	}
	latest := coursesByNumber(results)

	old, ok, err := c.Store.CourseResults(ctx, c.Client.Language())
	if err != nil {
		return err
	}
	if ok {
		changes := courseChanges(old, latest)
		if len(changes) > 0 {
			if err := c.Mailer.Send(examMessage(changes)); err != nil {
				return err
			}
		} else {
			slog.Info("no new exam updates found")
		}
	}
	return c.Store.SaveCourseResults(ctx, c.Client.Language(), latest)
}

func (c Checker) checkRegistrationPeriods(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "checker:registrationPeriods")
	defer span.End()

	periods, err := c.Client.RegistrationPeriods(ctx)
	if err != nil {
		return err
	}

	notified, _, err := c.Store.NotifiedPeriods(ctx)
	if err != nil {
		return err
	}

	for _, period := range activePeriods(timezone.Now(), periods, notified) {
		if err := c.Mailer.Send(periodMessage(period)); err != nil {
			return err
		}
		notified = append(notified, period)
	}
	return c.Store.SaveNotifiedPeriods(ctx, notified)
}

// newDocuments walks both newest-first lists in lockstep: a
// positional mismatch is a new document, the first match means the
// remainder of both lists is identical.
func newDocuments(old, latest []stine.Document) []stine.Document {
	var fresh []stine.Document
	for i, doc := range latest {
		if i >= len(old) {
			break
		}
		if doc.Same(old[i]) {
			break
		}
		fresh = append(fresh, doc)
	}
	return fresh
}

func coursesByNumber(results []stine.SemesterResult) map[string]stine.CourseResult {
	courses := map[string]stine.CourseResult{}
	for _, result := range results {
		for _, course := range result.Courses {
			courses[course.Number] = course
		}
	}
	return courses
}

// Change is one human-readable course result transition.
type Change struct {
	Course string
	Old    string
	New    string
}

// courseChanges diffs two course maps: changed grades, changed
// status, and newly appeared courses that already carry a result. A
// new course without grade and status is skipped, an empty entry is
// not worth a mail.
func courseChanges(old, latest map[string]stine.CourseResult) []Change {
	numbers := make([]string, 0, len(latest))
	for number := range latest {
		numbers = append(numbers, number)
	}
	sort.Strings(numbers)

	var changes []Change
	for _, number := range numbers {
		course := latest[number]

		before, known := old[number]
		if !known {
			if course.FinalGrade != nil && course.Status != "" {
				changes = append(changes, Change{
					Course: course.Name,
					Old:    "-",
					New:    fmt.Sprintf("Final Grade: %s | Status: %s", formatGrade(course.FinalGrade), course.Status),
				})
			}
			continue
		}

		if !floatPtrEqual(before.FinalGrade, course.FinalGrade) {
			changes = append(changes, Change{
				Course: course.Name,
				Old:    formatGrade(before.FinalGrade),
				New:    formatGrade(course.FinalGrade),
			})
		}
		if before.Status != course.Status {
			changes = append(changes, Change{
				Course: course.Name,
				Old:    before.Status,
				New:    course.Status,
			})
		}
	}
	return changes
}

// activePeriods returns the periods that are running right now and
// have not been announced yet.
func activePeriods(now time.Time, periods, notified []stine.RegistrationPeriod) []stine.RegistrationPeriod {
	var active []stine.RegistrationPeriod
	for _, period := range periods {
		if !period.Period.Contains(now) {
			continue
		}
		if periodNotified(notified, period) {
			continue
		}
		active = append(active, period)
	}
	return active
}

func periodNotified(notified []stine.RegistrationPeriod, period stine.RegistrationPeriod) bool {
	for _, n := range notified {
		if n.Kind == period.Kind &&
			n.Period.Start.Equal(period.Period.Start) &&
			n.Period.End.Equal(period.Period.End) {
			return true
		}
	}
	return false
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func formatGrade(grade *float64) string {
	if grade == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*grade, 'f', -1, 64)
}

func documentsMessage(fresh []stine.Document) (subject, body string) {
	lines := make([]string, 0, len(fresh))
	for _, doc := range fresh {
		line := fmt.Sprintf("%s (created %s)", doc.Name, doc.Created.Format("2006-01-02 15:04"))
		if doc.Status != "" {
			line += " - " + doc.Status
		}
		lines = append(lines, line)
	}
	return "STiNE notifier - documents update",
		"New documents:\n\n" + strings.Join(lines, "\n\n")
}

func examMessage(changes []Change) (subject, body string) {
	var sb strings.Builder
	sb.WriteString("Update in course results:\n")
	for _, change := range changes {
		fmt.Fprintf(&sb, "[%s] (%s -> %s)\n", change.Course, change.Old, change.New)
	}
	return "STiNE notifier - exam update", sb.String()
}

func periodMessage(period stine.RegistrationPeriod) (subject, body string) {
	kind := period.Kind.String()
	return fmt.Sprintf("STiNE notifier: The %s just started", kind),
		fmt.Sprintf("The %s just started.\nFurther information: %s", kind, period.Period.String())
}
