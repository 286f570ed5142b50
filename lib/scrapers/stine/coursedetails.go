package stine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"stine-client/lib/htmlutil"
	"stine-client/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// firstSel resolves a selector that the page contract requires to be
// present. An empty match means the portal changed its page shape,
// which has to surface instead of silently producing wrong data.
func firstSel(sel *goquery.Selection, selector string) (*goquery.Selection, error) {
	s := sel.Find(selector).First()
	if s.Length() == 0 {
		return nil, fmt.Errorf("page is missing required element %q", selector)
	}
	return s, nil
}

func parseDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func intPtr(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

// applyCourseAttribute routes one key/value pair of the course details
// block into its typed CourseInfo field. Unknown keys land in the
// free-form attribute map. A value that fails its typed parse is
// logged and left unset, never fatal.
func applyCourseAttribute(info *CourseInfo, key, value string) {
	key = strings.TrimSuffix(strings.TrimSpace(key), ":")

	switch strings.ToLower(key) {
	case "lehrende", "instructors":
		info.Instructors = textutil.SplitInstructors(value)
	case "veranstaltungsart", "event type":
		if t, ok := ParseEventType(value); ok {
			info.EventType = &t
		}
		info.EventTypeRaw = value
	case "anzeige im stundenplan", "displayed in timetable as":
		info.TimetableName = value
	case "semesterwochenstunden", "hours per week":
		info.HoursPerWeek = intPtr(value)
	case "credits":
		info.Credits = value
	case "unterrichtssprache", "language of instruction":
		info.Language = value
	case "min. | max. teilnehmerzahl", "min. | max. participants":
		min, max, found := strings.Cut(value, "|")
		if !found {
			slog.Warn("participant count without | separator", "value", value)
			break
		}
		info.MinParticipants = intPtr(min)
		info.MaxParticipants = intPtr(max)
	default:
		if info.Attributes == nil {
			info.Attributes = map[string]string{}
		}
		info.Attributes[key] = value
	}
}

// parseCourseInfo extracts the key/value block of a course details
// page. The block renders as a flat run of text nodes where bolded
// lines are keys and everything until the next key belongs to the
// current key's value, joined with newlines.
func parseCourseInfo(body string) (CourseInfo, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return CourseInfo{}, err
	}

	block, err := firstSel(doc.Selection, ".tbdata")
	if err != nil {
		return CourseInfo{}, err
	}

	keys := map[string]bool{}
	block.Find("b").Each(func(_ int, b *goquery.Selection) {
		keys[strings.TrimSpace(b.Text())] = true
	})

	var info CourseInfo
	var latestKey string
	var latestValue []string

	for _, line := range htmlutil.TextLines(block) {
		if keys[line] {
			if latestKey != "" {
				applyCourseAttribute(&info, latestKey, strings.Join(latestValue, "\n"))
			}
			latestKey = line
			latestValue = nil
			continue
		}
		if line != ":" && line != "" {
			latestValue = append(latestValue, line)
		}
	}
	if latestKey != "" {
		applyCourseAttribute(&info, latestKey, strings.Join(latestValue, "\n"))
	}

	return info, nil
}

// parseAppointments extracts the appointment rows of one details
// table. Rows without a parseable date keep nil instants, the rest of
// the row is still worth having.
func parseAppointments(table *goquery.Selection) []Appointment {
	var appointments []Appointment

	table.Find("tbody > tr").Each(func(_ int, row *goquery.Selection) {
		dateCell := row.Find(".rw-course-date").First()
		if dateCell.Length() == 0 {
			return
		}
		date := strings.TrimSpace(dateCell.Text())
		from := strings.TrimSpace(row.Find(".rw-course-from").First().Text())
		to := strings.TrimSpace(row.Find(".rw-course-to").First().Text())

		roomCell := row.Find(".rw-course-room").First()
		room := strings.TrimSpace(roomCell.Text())
		// the room cell sometimes wraps the room in a link or span
		if roomLink := roomCell.Find(`[name="appointmentRooms"]`).First(); roomLink.Length() > 0 {
			room = strings.TrimSpace(roomLink.Text())
		}

		instructors := strings.TrimSpace(row.Find(".rw-course-instruct").First().Text())

		appointment := Appointment{
			Room:        textutil.CleanScraped(room),
			Instructors: textutil.SplitInstructors(instructors),
		}
		if start, err := parseShortDateTime(date + " " + from); err == nil {
			appointment.Start = &start
		}
		if end, err := parseShortDateTime(date + " " + to); err == nil {
			appointment.End = &end
		}
		appointments = append(appointments, appointment)
	})

	return appointments
}

// parseGroups extracts the small-group list of a course. At a
// non-lazy level each group's appointments are fetched right away,
// they live on a separate page.
func parseGroups(ctx context.Context, c *Client, list *goquery.Selection, lazy LazyLevel) ([]Group, error) {
	var groups []Group

	var outerErr error
	list.Find("ul > li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		name, err := firstSel(li, ".dl-ul-li-headline > strong")
		if err != nil {
			outerErr = err
			return false
		}
		links := htmlutil.GetAnchors(li.Find(".dl-link > a"))
		if len(links) == 0 {
			outerErr = fmt.Errorf("group entry has no details link")
			return false
		}
		href := links[0].Href

		paragraphs := li.Find(".dl-inner > p")
		if paragraphs.Length() < 3 {
			outerErr = fmt.Errorf("group entry has %d paragraphs, expected at least 3", paragraphs.Length())
			return false
		}

		group := Group{
			Name:         textutil.CleanScraped(name.Text()),
			Instructors:  textutil.SplitInstructors(paragraphs.Eq(1).Text()),
			Schedule:     textutil.CleanScraped(paragraphs.Eq(2).Text()),
			appointments: unloadedFacet[[]Appointment](href),
		}

		if !lazy.IsLazy() {
			appointments, err := fetchGroupAppointments(ctx, c, href)
			if err != nil {
				outerErr = err
				return false
			}
			group.appointments = loadedFacet(href, appointments)
		}

		groups = append(groups, group)
		return true
	})

	return groups, outerErr
}

// fetchGroupAppointments loads a group's own details page and returns
// the rows of its appointments table.
func fetchGroupAppointments(ctx context.Context, c *Client, link string) ([]Appointment, error) {
	body, err := c.Invoke(ctx, ScreenCourseDetails, ParseArgString(link))
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	var appointments []Appointment
	doc.Find(".tb").Each(func(_ int, table *goquery.Selection) {
		caption := strings.ToLower(strings.TrimSpace(table.Find("caption").First().Text()))
		if caption == "appointments" || caption == "termine" {
			appointments = parseAppointments(table)
		}
	})
	return appointments, nil
}

// parseDetailTables walks the .tb blocks of a course details page and
// fills the appointments and groups facets. Both facets end up loaded
// even when their table is absent, the page simply has none then.
func parseDetailTables(ctx context.Context, c *Client, body string, s *SubModule, lazy LazyLevel, link string) error {
	doc, err := parseDocument(body)
	if err != nil {
		return err
	}

	s.appointments = loadedFacet[[]Appointment](link, nil)
	s.groups = loadedFacet[[]Group](link, nil)

	var outerErr error
	doc.Find(".tb").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		caption := table.Find("caption").First()
		if caption.Length() > 0 {
			text := strings.ToLower(strings.TrimSpace(caption.Text()))
			if text == "appointments" || text == "termine" {
				s.appointments = loadedFacet(link, parseAppointments(table))
			}
			return true
		}

		// a .tb block without a caption is the group list
		head := strings.ToLower(strings.TrimSpace(table.Find(".tbhead").First().Text()))
		if head != "kleingruppe(n)" && head != "small group(s)" {
			return true
		}

		groupList := table
		groupLink := link
		// when the page shows a single group, this link restores the
		// full group list
		if showAll := table.Find(".tbdata > a").First(); showAll.Length() > 0 {
			groupLink = showAll.AttrOr("href", "")
			allBody, err := c.Invoke(ctx, ScreenCourseDetails, ParseArgString(groupLink))
			if err != nil {
				outerErr = err
				return false
			}
			allDoc, err := parseDocument(allBody)
			if err != nil {
				outerErr = err
				return false
			}
			groupList = allDoc.Find(".tb").First()
		}

		groups, err := parseGroups(ctx, c, groupList, lazy)
		if err != nil {
			outerErr = err
			return false
		}
		s.groups = loadedFacet(groupLink, groups)
		return true
	})

	return outerErr
}
