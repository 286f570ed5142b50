package stine

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// LazyLevel is the laziness budget threaded through every bulk scrape.
// It only gates the initial scrape: at FullLazy an entity is returned
// with all facets unloaded, any other level expands the entity and its
// children recursively. Facets can always be upgraded on demand later
// through their accessors.
type LazyLevel int

const (
	// FullLazy allows no further requests beyond the page already
	// fetched.
	FullLazy         LazyLevel = 0
	OneLink          LazyLevel = 1
	TwoLinks         LazyLevel = 2
	ThreeOrMoreLinks LazyLevel = 3
	// NotLazy keeps issuing requests until the object is complete.
	NotLazy LazyLevel = 10
)

func (l LazyLevel) IsLazy() bool {
	return l != NotLazy
}

// facet is a two-state lazy field: either it only knows the portal
// link it can be fetched from, or it holds the fetched value. The
// accessor methods on the owning entity are the only way to get at
// the value, upgrading unloaded state with one request.
type facet[T any] struct {
	loaded bool
	value  T
	link   string
}

func loadedFacet[T any](link string, value T) facet[T] {
	return facet[T]{loaded: true, value: value, link: link}
}

func unloadedFacet[T any](link string) facet[T] {
	return facet[T]{link: link}
}

type facetJSON[T any] struct {
	Loaded bool   `json:"loaded"`
	Value  T      `json:"value,omitempty"`
	Link   string `json:"link"`
}

func (f facet[T]) toJSON() facetJSON[T] {
	return facetJSON[T]{Loaded: f.loaded, Value: f.value, Link: f.link}
}

func facetFromJSON[T any](j facetJSON[T]) facet[T] {
	return facet[T]{loaded: j.Loaded, value: j.Value, link: j.Link}
}

// ModuleCategory is one top-level entry of the registration catalog.
// OrphanSubModules collects courses that appeared before any module
// row in their category table.
type ModuleCategory struct {
	Name             string      `json:"name"`
	Modules          []Module    `json:"modules"`
	OrphanSubModules []SubModule `json:"orphan_submodules"`
}

type Exam struct {
	Name         string     `json:"name"`
	Start        *time.Time `json:"start,omitempty"`
	End          *time.Time `json:"end,omitempty"`
	Instructors  []string   `json:"instructors"`
	Mandatory    *bool      `json:"mandatory,omitempty"`
	MandatoryRaw string     `json:"mandatory_raw"`
}

// Module is a bookable module like "InfB-SE1 Softwareentwicklung I".
// The module number is its stable cache key.
type Module struct {
	Number        string      `json:"number"`
	Name          string      `json:"name"`
	SubModules    []SubModule `json:"sub_modules"`
	Exams         []Exam      `json:"exams"`
	Owner         string      `json:"owner"`
	TimetableName string      `json:"timetable_name,omitempty"`
	Duration      *int        `json:"duration,omitempty"`
	Electives     *int        `json:"electives,omitempty"`
	Credits       string      `json:"credits,omitempty"`
	StartSemester string      `json:"start_semester,omitempty"`

	// free-form key/value rows of the details page that have no
	// dedicated field
	Attributes map[string]string `json:"attributes,omitempty"`
}

type EventType int

const (
	Lecture EventType = iota
	Exercise
	Project
	Internship
	Seminar
	Proseminar
	Tutorial
	LectureSeries
	// general professional skills course, "ABK-Kurs"
	GPSCourse
)

var eventTypeLabels = map[string]EventType{
	"vorlesung": Lecture,
	"lecture":   Lecture,

	"übung":                Exercise,
	"exercise":             Exercise,
	"practical course/lab": Exercise,

	"projekt": Project,
	"project": Project,

	"praktikum":  Internship,
	"internship": Internship,

	"seminar": Seminar,

	"proseminar":           Proseminar,
	"introductory seminar": Proseminar,

	"tutorium": Tutorial,
	"tutorial": Tutorial,

	"ringvorlesung":  LectureSeries,
	"lecture series": LectureSeries,

	"abk-kurse":                           GPSCourse,
	"general professional skills courses": GPSCourse,
}

// ParseEventType matches the label case-insensitively against the
// known bilingual vocabulary.
func ParseEventType(s string) (EventType, bool) {
	t, ok := eventTypeLabels[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// CourseInfo is the lazily loaded key/value block of a course details
// page. EventTypeRaw keeps the source label because the EventType
// match is best-effort.
type CourseInfo struct {
	EventType       *EventType        `json:"event_type,omitempty"`
	EventTypeRaw    string            `json:"event_type_raw,omitempty"`
	Instructors     []string          `json:"instructors,omitempty"`
	TimetableName   string            `json:"timetable_name,omitempty"`
	HoursPerWeek    *int              `json:"hours_per_week,omitempty"`
	Credits         string            `json:"credits,omitempty"`
	Language        string            `json:"language,omitempty"`
	MinParticipants *int              `json:"min_participants,omitempty"`
	MaxParticipants *int              `json:"max_participants,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
}

type Appointment struct {
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Room        string     `json:"room"`
	Instructors []string   `json:"instructors"`
}

// SubModule is a single course (lecture, exercise, ...) below a
// Module. Its id, extracted from the portal's internal link, is the
// stable cache key. The three facets share one underlying page, so
// upgrading any one of them loads all three in one request.
type SubModule struct {
	ID           string `json:"id"`
	CourseNumber string `json:"course_number"`
	Name         string `json:"name"`

	info         facet[CourseInfo]
	appointments facet[[]Appointment]
	groups       facet[[]Group]
}

// loadDetails fetches the course details page once and fills all
// three facets from it.
func (s *SubModule) loadDetails(ctx context.Context, c *Client) error {
	link := s.info.link

	body, err := c.Invoke(ctx, ScreenCourseDetails, ParseArgString(link))
	if err != nil {
		return err
	}

	info, err := parseCourseInfo(body)
	if err != nil {
		return err
	}
	s.info = loadedFacet(link, info)

	return parseDetailTables(ctx, c, body, s, NotLazy, link)
}

// Info returns the course's key/value details, fetching the details
// page on first access. The first access also loads the appointments
// and groups facets, they live on the same page.
func (s *SubModule) Info(ctx context.Context, c *Client) (CourseInfo, error) {
	if !s.info.loaded {
		if err := s.loadDetails(ctx, c); err != nil {
			return CourseInfo{}, err
		}
	}
	return s.info.value, nil
}

// Appointments returns the course's own appointment list. A nil slice
// means the page had no appointments table.
func (s *SubModule) Appointments(ctx context.Context, c *Client) ([]Appointment, error) {
	if !s.appointments.loaded {
		if err := s.loadDetails(ctx, c); err != nil {
			return nil, err
		}
	}
	return s.appointments.value, nil
}

// Groups returns the course's small groups. A nil slice means the
// page had no groups block.
func (s *SubModule) Groups(ctx context.Context, c *Client) ([]Group, error) {
	if !s.groups.loaded {
		if err := s.loadDetails(ctx, c); err != nil {
			return nil, err
		}
	}
	return s.groups.value, nil
}

type subModuleJSON struct {
	ID           string                   `json:"id"`
	CourseNumber string                   `json:"course_number"`
	Name         string                   `json:"name"`
	Info         facetJSON[CourseInfo]    `json:"info"`
	Appointments facetJSON[[]Appointment] `json:"appointments"`
	Groups       facetJSON[[]Group]       `json:"groups"`
}

func (s SubModule) MarshalJSON() ([]byte, error) {
	return json.Marshal(subModuleJSON{
		ID:           s.ID,
		CourseNumber: s.CourseNumber,
		Name:         s.Name,
		Info:         s.info.toJSON(),
		Appointments: s.appointments.toJSON(),
		Groups:       s.groups.toJSON(),
	})
}

func (s *SubModule) UnmarshalJSON(data []byte) error {
	var j subModuleJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	s.ID = j.ID
	s.CourseNumber = j.CourseNumber
	s.Name = j.Name
	s.info = facetFromJSON(j.Info)
	s.appointments = facetFromJSON(j.Appointments)
	s.groups = facetFromJSON(j.Groups)
	return nil
}

// Group is a small group of a SubModule. Its appointments live on a
// separate details page and are fetched independently of the parent's
// facets.
type Group struct {
	Name        string   `json:"name"`
	Instructors []string `json:"instructors"`
	// free-text schedule description as displayed in the group list
	Schedule string `json:"schedule"`

	appointments facet[[]Appointment]
}

// Appointments fetches the group's own appointment list on first
// access.
func (g *Group) Appointments(ctx context.Context, c *Client) ([]Appointment, error) {
	if !g.appointments.loaded {
		appointments, err := fetchGroupAppointments(ctx, c, g.appointments.link)
		if err != nil {
			return nil, err
		}
		g.appointments = loadedFacet(g.appointments.link, appointments)
	}
	return g.appointments.value, nil
}

type groupJSON struct {
	Name             string   `json:"name"`
	Instructors      []string `json:"instructors"`
	Schedule         string   `json:"schedule"`
	AppointmentsLink string   `json:"appointments_link"`
}

// Group appointments are intentionally not persisted: the cache only
// keeps the link, so appointments are re-fetched after a cache
// round-trip.
func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(groupJSON{
		Name:             g.Name,
		Instructors:      g.Instructors,
		Schedule:         g.Schedule,
		AppointmentsLink: g.appointments.link,
	})
}

func (g *Group) UnmarshalJSON(data []byte) error {
	var j groupJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	g.Name = j.Name
	g.Instructors = j.Instructors
	g.Schedule = j.Schedule
	g.appointments = unloadedFacet[[]Appointment](j.AppointmentsLink)
	return nil
}

type GradeCount struct {
	Grade float64 `json:"grade"`
	Count int     `json:"count"`
}

type MissingCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// GradeStats is the grade distribution of one exam or course.
type GradeStats struct {
	// distribution in table order, grade to number of students
	Grades           []GradeCount `json:"grades"`
	Average          *float64     `json:"average,omitempty"`
	AvailableResults *int         `json:"available_results,omitempty"`
	// results graded on a differing grading system
	DifferingGSResults *int `json:"differing_gs_results,omitempty"`

	MissingIll           *int `json:"missing_ill,omitempty"`
	MissingWithoutReason *int `json:"missing_without_reason,omitempty"`
	MissingCanceled      *int `json:"missing_canceled,omitempty"`
	MissingExcused       *int `json:"missing_excused,omitempty"`
	// missing reasons outside the known vocabulary, in table order
	MissingOther []MissingCount `json:"missing_other,omitempty"`
}

// CourseResult is one row of a semester's results table. The grade
// statistics facet is only present when the row linked to a grade
// overview.
type CourseResult struct {
	Number     string   `json:"number"`
	Name       string   `json:"name"`
	FinalGrade *float64 `json:"final_grade,omitempty"`
	Credits    string   `json:"credits,omitempty"`
	Status     string   `json:"status"`

	hasGradeStats bool
	gradeStats    facet[GradeStats]
}

// HasGradeStats reports whether the result row linked to a grade
// overview at all.
func (r *CourseResult) HasGradeStats() bool {
	return r.hasGradeStats
}

// GradeStats fetches the grade distribution on first access. Returns
// a NotFoundError when the result row carried no grade overview link.
func (r *CourseResult) GradeStats(ctx context.Context, c *Client) (GradeStats, error) {
	if !r.hasGradeStats {
		return GradeStats{}, NotFoundError{Kind: "grade stats for course", Key: r.Number}
	}
	if !r.gradeStats.loaded {
		stats, err := c.GradeStatsForCourse(ctx, r.gradeStats.link)
		if err != nil {
			return GradeStats{}, err
		}
		r.gradeStats = loadedFacet(r.gradeStats.link, stats)
	}
	return r.gradeStats.value, nil
}

type courseResultJSON struct {
	Number        string                `json:"number"`
	Name          string                `json:"name"`
	FinalGrade    *float64              `json:"final_grade,omitempty"`
	Credits       string                `json:"credits,omitempty"`
	Status        string                `json:"status"`
	HasGradeStats bool                  `json:"has_grade_stats"`
	GradeStats    facetJSON[GradeStats] `json:"grade_stats"`
}

func (r CourseResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(courseResultJSON{
		Number:        r.Number,
		Name:          r.Name,
		FinalGrade:    r.FinalGrade,
		Credits:       r.Credits,
		Status:        r.Status,
		HasGradeStats: r.hasGradeStats,
		GradeStats:    r.gradeStats.toJSON(),
	})
}

func (r *CourseResult) UnmarshalJSON(data []byte) error {
	var j courseResultJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	r.Number = j.Number
	r.Name = j.Name
	r.FinalGrade = j.FinalGrade
	r.Credits = j.Credits
	r.Status = j.Status
	r.hasGradeStats = j.HasGradeStats
	r.gradeStats = facetFromJSON(j.GradeStats)
	return nil
}

// SemesterResult is the results table of one semester. GPA is nil
// when the portal rendered something unparseable, GPARaw always keeps
// the source text.
type SemesterResult struct {
	Semester Semester       `json:"semester"`
	Courses  []CourseResult `json:"courses"`
	GPA      *float64       `json:"gpa,omitempty"`
	GPARaw   string         `json:"gpa_raw"`
	Credits  string         `json:"credits"`
}
