package stine

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stine-client/lib/textutil"
)

// ActorType is the account role reported by the mobile
// GETPERSONTYPE endpoint.
type ActorType struct {
	// raw three-letter code, kept for unknown roles
	Code string
}

var actorTypes = map[string]string{
	"ADM": "applicant",
	"DOZ": "instructor",
	"EXS": "external student",
	"FOE": "sponsor",
	"INT": "interested parties",
	"MAB": "employee",
	"PRA": "internship",
	"STD": "student",
}

// Known reports whether the code is part of the documented role
// vocabulary. Unknown codes are kept verbatim, never an error.
func (a ActorType) Known() bool {
	_, ok := actorTypes[a.Code]
	return ok
}

func (a ActorType) String() string {
	if name, ok := actorTypes[a.Code]; ok {
		return name
	}
	return fmt.Sprintf("unknown actor type %q", a.Code)
}

// StudentEvent is one course registration as reported by the mobile
// GETEVENTS endpoint. Every field is optional, tags absent from the
// XML stay at their zero value.
type StudentEvent struct {
	CourseID        string
	CourseDataID    string
	CourseNumber    string
	CourseName      string
	EventType       string
	EventCategory   *EventType
	SemesterID      string
	SemesterName    *Semester
	Credits         *float64
	HoursPerWeek    *int
	SmallGroups     *int
	Language        string
	FacultyName     string
	MaxStudents     *int
	Instructors     string
	ModuleName      string
	ModuleNumber    string
	Listener        *bool
	AcceptedStatus  *bool
	MaterialPresent *bool
	InfoPresent     *bool
}

// StudentExam is one exam entry as reported by the mobile GETEXAMS
// endpoint.
type StudentExam struct {
	ExamID           string
	ExamName         string
	Context          string
	ContextType      string
	Subject          string
	BeginDate        string
	DueDate          string
	TimeFrom         string
	TimeTo           string
	Grade            string
	GradeDescription string
	Instructors      string
	Status           string
	StatusSystem     string
	SemesterID       string
	SemesterName     *Semester
}

// flatElements walks the XML stream and returns one tag-to-text map
// per occurrence of the named element. Tag names are namespace
// stripped; a tag appearing twice inside one element keeps the last
// occurrence, duplicates have not been observed in the portal's
// output.
func flatElements(r io.Reader, name string) ([]map[string]string, error) {
	decoder := xml.NewDecoder(r)

	var out []map[string]string
	var current map[string]string
	var depth int
	var innermost string

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == name && current == nil {
				current = map[string]string{}
				depth = 0
			} else if current != nil {
				depth++
				innermost = t.Name.Local
			}
		case xml.CharData:
			if current == nil {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text != "" && innermost != "" {
				current[innermost] = text
			}
		case xml.EndElement:
			if current == nil {
				continue
			}
			if t.Name.Local == name && depth == 0 {
				out = append(out, current)
				current = nil
			} else {
				depth--
				innermost = ""
			}
		}
	}
	return out, nil
}

func flatAttr(r io.Reader, name string) (string, bool, error) {
	decoder := xml.NewDecoder(r)

	var inside bool
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			inside = t.Name.Local == name
		case xml.CharData:
			if inside {
				text := strings.TrimSpace(string(t))
				if text != "" {
					return text, true, nil
				}
			}
		case xml.EndElement:
			inside = false
		}
	}
	return "", false, nil
}

func parseBool(s string) *bool {
	switch strings.ToLower(s) {
	case "true", "t", "1":
		v := true
		return &v
	case "false", "f", "0":
		v := false
		return &v
	}
	return nil
}

func floatPtr(s string) *float64 {
	v, err := textutil.ParseFloat(s)
	if err != nil {
		return nil
	}
	return &v
}

// ParseActorType extracts the account role from a GETPERSONTYPE
// response.
func ParseActorType(xmlBody string) (ActorType, error) {
	code, found, err := flatAttr(strings.NewReader(xmlBody), "actortype")
	if err != nil {
		return ActorType{}, err
	}
	if !found {
		return ActorType{}, fmt.Errorf("actor type response has no actortype element")
	}
	return ActorType{Code: code}, nil
}

// ParseStudentEvents extracts the course list from a GETEVENTS
// response.
func ParseStudentEvents(xmlBody string) ([]StudentEvent, error) {
	elements, err := flatElements(strings.NewReader(xmlBody), "studentEvent")
	if err != nil {
		return nil, err
	}

	var events []StudentEvent
	for _, attrs := range elements {
		event := StudentEvent{
			CourseID:        attrs["courseID"],
			CourseDataID:    attrs["courseDataID"],
			CourseNumber:    attrs["courseNumber"],
			CourseName:      attrs["courseName"],
			EventType:       attrs["eventType"],
			SemesterID:      attrs["semesterID"],
			Language:        attrs["courseLanguage"],
			FacultyName:     attrs["facultyName"],
			Instructors:     attrs["instructorsString"],
			ModuleName:      attrs["moduleName"],
			ModuleNumber:    attrs["moduleNumber"],
			Credits:         floatPtr(attrs["creditPoints"]),
			Listener:        parseBool(attrs["listener"]),
			AcceptedStatus:  parseBool(attrs["acceptedStatus"]),
			MaterialPresent: parseBool(attrs["materialPresent"]),
			InfoPresent:     parseBool(attrs["infoPresent"]),
		}
		if category, ok := ParseEventType(attrs["eventCategory"]); ok {
			event.EventCategory = &category
		}
		if semester, err := ParseSemester(attrs["semesterName"]); err == nil {
			event.SemesterName = &semester
		}
		if hours, err := strconv.Atoi(attrs["hoursPerWeek"]); err == nil {
			event.HoursPerWeek = &hours
		}
		if groups, err := strconv.Atoi(attrs["smallGroups"]); err == nil {
			event.SmallGroups = &groups
		}
		if max, err := strconv.Atoi(attrs["maxStudents"]); err == nil {
			event.MaxStudents = &max
		}
		events = append(events, event)
	}
	return events, nil
}

// ParseStudentExams extracts the exam list from a GETEXAMS response.
func ParseStudentExams(xmlBody string) ([]StudentExam, error) {
	elements, err := flatElements(strings.NewReader(xmlBody), "studentExam")
	if err != nil {
		return nil, err
	}

	var exams []StudentExam
	for _, attrs := range elements {
		exam := StudentExam{
			ExamID:           attrs["examID"],
			ExamName:         attrs["examName"],
			Context:          attrs["context"],
			ContextType:      attrs["contextType"],
			Subject:          attrs["subject"],
			BeginDate:        attrs["beginDate"],
			DueDate:          attrs["dueDate"],
			TimeFrom:         attrs["timeFrom"],
			TimeTo:           attrs["timeTo"],
			Grade:            attrs["grade"],
			GradeDescription: attrs["gradeDescription"],
			Instructors:      attrs["instructorString"],
			Status:           attrs["status"],
			StatusSystem:     attrs["statusSystem"],
			SemesterID:       attrs["semesterID"],
		}
		if semester, err := ParseSemester(attrs["semesterName"]); err == nil {
			exam.SemesterName = &semester
		}
		exams = append(exams, exam)
	}
	return exams, nil
}

// InvokeMobile issues a request against the mobile dispatch screen.
// The argument string is encrypted by the caller-provided cipher; a
// client without one cannot use the mobile endpoints.
func (c *Client) InvokeMobile(ctx context.Context, screen string, args []string) (string, error) {
	if c.cipher == nil {
		return "", fmt.Errorf("no mobile argument cipher configured")
	}

	encrypted, err := c.cipher.Encrypt(screen, c.creds.Session, args)
	if err != nil {
		return "", err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Cookie", "cnsc="+c.creds.Cookie).
		SetQueryParams(map[string]string{
			"APPNAME":   "CampusNet",
			"PRGNAME":   "ACTIONMOBILE",
			"ARGUMENTS": "-A" + encrypted,
		}).
		Get(c.apiURL)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// ActorType fetches the account's role through the mobile endpoint.
func (c *Client) ActorType(ctx context.Context) (ActorType, error) {
	body, err := c.InvokeMobile(ctx, "GETPERSONTYPE", []string{"000000", "1"})
	if err != nil {
		return ActorType{}, err
	}
	return ParseActorType(body)
}

// StudentEvents fetches the account's course registrations through
// the mobile endpoint.
func (c *Client) StudentEvents(ctx context.Context) ([]StudentEvent, error) {
	body, err := c.InvokeMobile(ctx, "GETEVENTS", []string{"000000"})
	if err != nil {
		return nil, err
	}
	return ParseStudentEvents(body)
}

// StudentExams fetches the account's exam entries through the mobile
// endpoint.
func (c *Client) StudentExams(ctx context.Context) ([]StudentExam, error) {
	body, err := c.InvokeMobile(ctx, "GETEXAMS", []string{"000000"})
	if err != nil {
		return nil, err
	}
	return ParseStudentExams(body)
}
