package stine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"stine-client/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// SemesterResults returns the exam and course results of the given
// semesters. The results page renders one semester at a time behind a
// dropdown, so every requested semester costs one reload request;
// semesters outside the filter are skipped before that request is
// made. Pass FullLazy unless the grade statistics are needed, they
// cost one extra request per course.
func (c *Client) SemesterResults(ctx context.Context, semesters []Semester, lazy LazyLevel) ([]SemesterResult, error) {
	ctx, span := tracer.Start(ctx, "client:SemesterResults")
	defer span.End()

	body, err := c.Invoke(ctx, ScreenCourseResults, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return c.parseCourseResults(ctx, body, semesters, false, lazy)
}

// AllSemesterResults returns the results of every semester on record.
func (c *Client) AllSemesterResults(ctx context.Context, lazy LazyLevel) ([]SemesterResult, error) {
	ctx, span := tracer.Start(ctx, "client:AllSemesterResults")
	defer span.End()

	body, err := c.Invoke(ctx, ScreenCourseResults, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return c.parseCourseResults(ctx, body, nil, true, lazy)
}

func semesterRequested(s Semester, filter []Semester) bool {
	for _, f := range filter {
		if f == s {
			return true
		}
	}
	return false
}

// parseCourseResults walks the semester dropdown of the results page
// and reloads the page once per matching semester.
func (c *Client) parseCourseResults(ctx context.Context, body string, semesters []Semester, all bool, lazy LazyLevel) ([]SemesterResult, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	options := doc.Find("#semester > option")
	if options.Length() == 0 {
		return nil, fmt.Errorf("results page has no semester dropdown")
	}

	var results []SemesterResult
	var outerErr error
	options.EachWithBreak(func(_ int, option *goquery.Selection) bool {
		label := strings.TrimSpace(option.Text())
		semester, err := ParseSemester(label)
		if err != nil {
			slog.Error("skipping unparseable semester option", "label", label)
			return true
		}
		if !all && !semesterRequested(semester, semesters) {
			return true
		}

		slog.Debug("loading semester results", "semester", semester)

		// reload the page with the selected semester; -N000460 is
		// the sidebar argument the screen insists on
		reload, err := c.Invoke(ctx, ScreenCourseResults, []string{
			"-N000460",
			"-N" + option.AttrOr("value", ""),
		})
		if err != nil {
			outerErr = err
			return false
		}

		result, err := c.parseSemesterResult(ctx, reload, semester, lazy)
		if err != nil {
			outerErr = err
			return false
		}
		results = append(results, result)
		return true
	})
	if outerErr != nil {
		return nil, outerErr
	}
	return results, nil
}

var gradeStatsLinkRegex = regexp.MustCompile(`-AMOFF,(.*),-N0`)

// parseSemesterResult extracts one semester's results table. Course
// rows carry five td cells; the trailing summary row keeps the GPA
// and credit sum in th cells instead.
func (c *Client) parseSemesterResult(ctx context.Context, body string, semester Semester, lazy LazyLevel) (SemesterResult, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return SemesterResult{}, err
	}

	result := SemesterResult{Semester: semester}

	var outerErr error
	doc.Find(".nb > tbody:nth-child(2) > tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.Find("td:nth-child(1)").Length() == 0 {
			result.GPARaw = strings.TrimSpace(row.Find("th:nth-child(2)").First().Text())
			result.Credits = strings.TrimSpace(row.Find("th:nth-child(3)").First().Text())
			if gpa, err := textutil.ParseFloat(result.GPARaw); err == nil {
				result.GPA = &gpa
			}
			return true
		}

		course := CourseResult{
			Number:  textutil.CleanScraped(row.Find("td:nth-child(1)").First().Text()),
			Name:    textutil.CleanScraped(row.Find("td:nth-child(2)").First().Text()),
			Credits: textutil.CleanScraped(row.Find("td:nth-child(4)").First().Text()),
			Status:  textutil.CleanScraped(row.Find("td:nth-child(5)").First().Text()),
		}
		if grade, err := textutil.ParseFloat(row.Find("td:nth-child(3)").First().Text()); err == nil {
			course.FinalGrade = &grade
		}

		// the grade overview link hides in an inline script of the
		// seventh cell
		script := row.Find("td:nth-child(7) > script").First()
		if script.Length() > 0 {
			groups := gradeStatsLinkRegex.FindStringSubmatch(script.Text())
			if groups != nil && len(groups[1]) > 2 {
				id := groups[1][2:] // -N381865010228083 -> 381865010228083
				course.hasGradeStats = true
				course.gradeStats = unloadedFacet[GradeStats](id)

				if lazy != FullLazy {
					stats, err := c.GradeStatsForCourse(ctx, id)
					if err != nil {
						outerErr = err
						return false
					}
					course.gradeStats = loadedFacet(id, stats)
				}
			} else {
				slog.Error("failed extracting grade stats link", "course", course.Name, "semester", semester.String())
			}
		}

		result.Courses = append(result.Courses, course)
		return true
	})
	if outerErr != nil {
		return SemesterResult{}, outerErr
	}
	return result, nil
}

// GradeStatsForExam fetches the grade distribution of one exam
// attempt. Attempt 0 aggregates all attempts, 99 is the maximum the
// screen accepts.
func (c *Client) GradeStatsForExam(ctx context.Context, courseID string, attempt int) (GradeStats, error) {
	ctx, span := tracer.Start(ctx, "client:GradeStatsForExam")
	defer span.End()

	body, err := c.Invoke(ctx, ScreenGradeOverview, []string{
		"-N000460",
		"-AMOFF",
		"-N" + courseID,
		fmt.Sprintf("-N%d", attempt),
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return GradeStats{}, err
	}
	return parseGradeStats(body, courseID)
}

// GradeStatsForCourse fetches the aggregated grade distribution of a
// course.
func (c *Client) GradeStatsForCourse(ctx context.Context, courseID string) (GradeStats, error) {
	return c.GradeStatsForExam(ctx, courseID, 0)
}

var missingReasonRegex = regexp.MustCompile(`\((.*)\)`)

// applyMissingRow buckets a "missing (<reason>)" summary row into its
// typed counter. Reasons outside the vocabulary go to MissingOther.
func applyMissingRow(stats *GradeStats, key, value string) {
	count, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		slog.Error("missing-row count is not a number", "key", key, "value", value)
		return
	}

	if !strings.HasPrefix(key, "fehlend") && !strings.HasPrefix(key, "missing") {
		slog.Error("unrecognized grade statistic row", "key", key, "value", value)
		return
	}

	groups := missingReasonRegex.FindStringSubmatch(key)
	if groups == nil {
		stats.MissingOther = append(stats.MissingOther, MissingCount{Reason: key, Count: count})
		return
	}

	switch groups[1] {
	case "ill", "krank":
		stats.MissingIll = &count
	case "without reason", "ohne grund":
		stats.MissingWithoutReason = &count
	// the portal labels this one in German on the English pages too
	case "annulliert":
		stats.MissingCanceled = &count
	case "excused", "entschuldigt":
		stats.MissingExcused = &count
	default:
		stats.MissingOther = append(stats.MissingOther, MissingCount{Reason: groups[1], Count: count})
	}
}

// parseGradeStats extracts a grade overview page: the two-row
// distribution table zipped into (grade, count) pairs, followed by
// labeled summary rows.
func parseGradeStats(body, courseID string) (GradeStats, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return GradeStats{}, err
	}

	var stats GradeStats

	grades := doc.Find(".nb > tbody > tr:nth-child(1) > td")
	counts := doc.Find(".nb > tbody > tr:nth-child(2) > td")
	for i := 0; i < grades.Length() && i < counts.Length(); i++ {
		grade, err := textutil.ParseFloat(grades.Eq(i).Text())
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(counts.Eq(i).Text()))
		if err != nil {
			continue
		}
		stats.Grades = append(stats.Grades, GradeCount{Grade: grade, Count: count})
	}

	doc.Find(".tb > .tbdata").Each(func(_ int, row *goquery.Selection) {
		content := strings.ToLower(textutil.CleanScraped(row.Text()))
		key, value, found := strings.Cut(content, ":")
		if !found {
			slog.Error("grade stats row has no key", "row", content, "course", courseID)
			return
		}
		key = strings.TrimSpace(key)
		value = textutil.CleanScraped(value)

		switch key {
		case "average", "durchschnitt":
			if avg, err := textutil.ParseFloat(value); err == nil {
				stats.Average = &avg
			}
		case "available results", "vorliegende ergebnisse":
			stats.AvailableResults = intPtr(value)
		case "results with differing gs", "ergebnisse mit abweichendem bws":
			stats.DifferingGSResults = intPtr(value)
		default:
			applyMissingRow(&stats, key, value)
		}
	})

	return stats, nil
}
