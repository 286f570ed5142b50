package stine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stine-client/lib/htmlutil"
	"stine-client/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// RegistrationModules returns the full catalog of module categories
// the account can register for. Without forceReload the catalog comes
// from the per-language disk cache; a full re-scrape walks every
// category sequentially and takes minutes.
func (c *Client) RegistrationModules(ctx context.Context, forceReload bool, lazy LazyLevel) ([]ModuleCategory, error) {
	ctx, span := tracer.Start(ctx, "client:RegistrationModules")
	defer span.End()

	if !forceReload {
		categories, err := c.store.LoadCategories(c.language)
		if err != nil {
			slog.DebugContext(ctx, "module catalog cache miss", "err", err)
			return nil, NotFoundError{Kind: "module catalog", Key: string(c.language)}
		}
		return categories, nil
	}

	body, err := c.Invoke(ctx, ScreenRegistration, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	categories, err := c.parseModuleCategories(ctx, body, lazy)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.categoriesToMaps(categories)
	if err := c.saveMaps(); err != nil {
		return nil, err
	}
	if err := c.store.SaveCategories(c.language, categories); err != nil {
		return nil, fmt.Errorf("saving category cache: %w", err)
	}
	return categories, nil
}

// ModuleCategoryByName scrapes a single category of the registration
// catalog.
func (c *Client) ModuleCategoryByName(ctx context.Context, name string, lazy LazyLevel) (ModuleCategory, error) {
	ctx, span := tracer.Start(ctx, "client:ModuleCategoryByName")
	defer span.End()

	body, err := c.Invoke(ctx, ScreenRegistration, nil)
	if err != nil {
		return ModuleCategory{}, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return ModuleCategory{}, err
	}

	var found *goquery.Selection
	doc.Find("#contentSpacer_IE > ul > li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if strings.TrimSpace(li.Find("a").First().Text()) == name {
			found = li
			return false
		}
		return true
	})
	if found == nil {
		return ModuleCategory{}, NotFoundError{Kind: "module category", Key: name}
	}

	return c.parseModuleCategory(ctx, found, lazy)
}

// SubModuleByID looks a course up by its stable id. Without
// forceReload only the in-memory and on-disk caches are consulted; a
// miss is a NotFoundError, re-scraping the catalog is opt-in because
// it takes minutes.
func (c *Client) SubModuleByID(ctx context.Context, id string, forceReload bool, lazy LazyLevel) (SubModule, error) {
	if forceReload {
		if _, err := c.RegistrationModules(ctx, true, lazy); err != nil {
			return SubModule{}, err
		}
	} else {
		c.loadMaps()
	}

	submodule, ok := c.submodules[id]
	if !ok {
		return SubModule{}, NotFoundError{Kind: "submodule", Key: id}
	}
	return submodule, nil
}

// ModuleByNumber looks a module up by its module number, e.g.
// "InfB-SE1". Same cache semantics as SubModuleByID.
func (c *Client) ModuleByNumber(ctx context.Context, number string, forceReload bool, lazy LazyLevel) (Module, error) {
	if forceReload {
		if _, err := c.RegistrationModules(ctx, true, lazy); err != nil {
			return Module{}, err
		}
	} else {
		c.loadMaps()
	}

	module, ok := c.modules[number]
	if !ok {
		return Module{}, NotFoundError{Kind: "module", Key: number}
	}
	return module, nil
}

func (c *Client) parseModuleCategories(ctx context.Context, body string, lazy LazyLevel) ([]ModuleCategory, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	items := doc.Find("#contentSpacer_IE > ul > li")
	if items.Length() == 0 {
		return nil, fmt.Errorf("registration page has no category list")
	}

	var categories []ModuleCategory
	var outerErr error
	items.EachWithBreak(func(i int, li *goquery.Selection) bool {
		slog.Info("scraping module category", "index", i+1, "total", items.Length())
		category, err := c.parseModuleCategory(ctx, li, lazy)
		if err != nil {
			outerErr = err
			return false
		}
		categories = append(categories, category)
		return true
	})
	return categories, outerErr
}

// parseModuleCategory expands one category entry: it follows the
// category link and walks the course status table, where module rows
// (.tbsubhead cells) own the submodule rows (.tbdata cells) that
// follow them. Submodules before the first module row have no parent
// and end up in OrphanSubModules.
func (c *Client) parseModuleCategory(ctx context.Context, li *goquery.Selection, lazy LazyLevel) (ModuleCategory, error) {
	anchor, err := firstSel(li, "a")
	if err != nil {
		return ModuleCategory{}, err
	}

	category := ModuleCategory{
		Name: strings.TrimSpace(anchor.Text()),
	}

	body, err := c.Invoke(ctx, ScreenRegistration, ParseArgString(anchor.AttrOr("href", "")))
	if err != nil {
		return ModuleCategory{}, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return ModuleCategory{}, err
	}

	var latest *Module
	var outerErr error
	doc.Find(".tbcoursestatus > tbody > tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if cell := row.Find(".tbsubhead.dl-inner").First(); cell.Length() > 0 {
			if latest != nil {
				category.Modules = append(category.Modules, *latest)
			}
			module, err := c.parseModule(ctx, cell, lazy)
			if err != nil {
				outerErr = err
				return false
			}
			slog.Debug("scraped module", "number", module.Number, "name", module.Name)
			latest = &module
			return true
		}

		if cell := row.Find(".tbdata.dl-inner").First(); cell.Length() > 0 {
			submodule, err := c.parseSubModule(ctx, cell, lazy)
			if err != nil {
				outerErr = err
				return false
			}
			slog.Debug("scraped submodule", "id", submodule.ID, "name", submodule.Name)
			if latest != nil {
				latest.SubModules = append(latest.SubModules, submodule)
			} else {
				category.OrphanSubModules = append(category.OrphanSubModules, submodule)
			}
		}
		return true
	})
	if outerErr != nil {
		return ModuleCategory{}, outerErr
	}

	if latest != nil {
		category.Modules = append(category.Modules, *latest)
	}
	return category, nil
}

// parseModule extracts a module from its catalog table cell. At any
// level above FullLazy the module details page is fetched for the
// descriptive attributes and the exam table.
func (c *Client) parseModule(ctx context.Context, cell *goquery.Selection, lazy LazyLevel) (Module, error) {
	anchor, err := firstSel(cell, "p > strong > a")
	if err != nil {
		return Module{}, err
	}

	text := textutil.CollapseWhitespace(strings.Join(htmlutil.TextLines(anchor), " "))
	number, name, found := strings.Cut(text, " ")
	if !found {
		return Module{}, fmt.Errorf("module title %q has no number prefix", text)
	}

	paragraphs := cell.Find("p")
	if paragraphs.Length() < 2 {
		return Module{}, fmt.Errorf("module cell is missing the owner paragraph")
	}

	module := Module{
		Number: strings.TrimSpace(number),
		Name:   strings.TrimSpace(name),
		Owner:  strings.TrimSpace(paragraphs.Eq(1).Text()),
	}

	if lazy == FullLazy {
		return module, nil
	}

	body, err := c.Invoke(ctx, ScreenModuleDetails, ParseArgString(anchor.AttrOr("href", "")))
	if err != nil {
		return Module{}, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return Module{}, err
	}

	details, err := firstSel(doc.Selection, ".tbdata > td")
	if err != nil {
		return Module{}, err
	}
	applyModuleDetails(&module, htmlutil.TextLines(details))

	module.Exams = parseExams(doc)
	return module, nil
}

// applyModuleDetails consumes the flat key/value text list of the
// module details page. Known keys feed typed fields, the rest lands
// in the attribute map; a key followed by several lines without a
// colon keeps collecting those lines as a multi-line value.
func applyModuleDetails(module *Module, lines []string) {
	var latestKey string

	next := func(i int) string {
		if i+1 < len(lines) {
			return lines[i+1]
		}
		return ""
	}

	for i, line := range lines {
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "displayed in timetable as:", "anzeige im stundenplan:":
			module.TimetableName = next(i)
		case "duration:", "dauer:":
			module.Duration = intPtr(next(i))
		case "number of electives:", "anzahl wahlkurse:":
			module.Electives = intPtr(next(i))
		case "credits:":
			module.Credits = next(i)
		case "start semester:", "startsemester:":
			module.StartSemester = next(i)
		default:
			if module.Attributes == nil {
				module.Attributes = map[string]string{}
			}

			if latestKey != "" && !strings.HasSuffix(line, ":") && !strings.HasSuffix(next(i), ":") {
				value := module.Attributes[latestKey]
				if value != "" {
					value += "\n"
				}
				module.Attributes[latestKey] = value + strings.TrimSpace(line)
			}

			if value := next(i); value != "" {
				key := strings.ToLower(strings.TrimSpace(line))
				if strings.HasSuffix(line, ":") && len(strings.TrimSpace(line)) > 1 {
					module.Attributes[strings.TrimSuffix(key, ":")] = value
				} else if !strings.Contains(line, ":") && strings.TrimSpace(value) == ":" {
					latestKey = key
					module.Attributes[key] = ""
				}
			}
		}
	}
}

// parseExams extracts the final exam table of a module details page.
// The table's summary attribute is localized, both variants are
// tried. The mandatory flag is a heuristic over a yes/no cell, the
// raw cell value is kept alongside.
func parseExams(doc *goquery.Document) []Exam {
	rows := doc.Find(`.tb[summary="Final module exams"] > tbody > .tbdata`)
	if rows.Length() == 0 {
		rows = doc.Find(`.tb[summary="Modulabschlussprüfungen"] > tbody > .tbdata`)
	}

	var exams []Exam
	rows.Each(func(_ int, row *goquery.Selection) {
		name := textutil.CleanScraped(row.Find(".rw-detail-exam").First().Text())
		datetime := strings.TrimSpace(row.Find(".rw-detail-date").First().Text())
		instructors := strings.TrimSpace(row.Find(".rw-detail-instructors").First().Text())
		mandatoryRaw := strings.ToLower(strings.TrimSpace(row.Find(".rw-detail-compulsory").First().Text()))

		exam := Exam{
			Name:         name,
			Instructors:  textutil.SplitInstructors(instructors),
			MandatoryRaw: mandatoryRaw,
		}

		switch mandatoryRaw {
		case "ja", "yes":
			yes := true
			exam.Mandatory = &yes
		case "nein", "no":
			no := false
			exam.Mandatory = &no
		}

		// "Do, 21. Jul. 2022, 10:15 - 11:45": the last comma segment
		// is the time range, the rest is the date
		if start, end, ok := splitExamTimes(datetime); ok {
			exam.Start = start
			exam.End = end
		}

		exams = append(exams, exam)
	})
	return exams
}

func splitExamTimes(datetime string) (start, end *time.Time, ok bool) {
	segments := strings.Split(datetime, ",")
	if len(segments) < 2 {
		return nil, nil, false
	}

	timeRange := strings.TrimSpace(segments[len(segments)-1])
	from, to, found := strings.Cut(timeRange, " - ")
	if !found {
		return nil, nil, false
	}

	date := strings.TrimSpace(strings.Join(segments[:len(segments)-1], ","))
	if s, err := parseShortDateTime(date + " " + strings.TrimSpace(from)); err == nil {
		start = &s
	}
	if e, err := parseShortDateTime(date + " " + strings.TrimSpace(to)); err == nil {
		end = &e
	}
	return start, end, true
}

// parseSubModule extracts a course from its catalog table cell. Above
// FullLazy the details page is fetched immediately and all three
// facets are loaded.
func (c *Client) parseSubModule(ctx context.Context, cell *goquery.Selection, lazy LazyLevel) (SubModule, error) {
	anchors := htmlutil.GetAnchors(cell.Find("a"))
	if len(anchors) == 0 {
		return SubModule{}, fmt.Errorf("course cell has no link")
	}

	name := strings.TrimSpace(cell.Find(".eventTitle").First().Text())
	if name == "" {
		name = anchors[0].Name
	}
	link := anchors[0].Href

	args := ParseArgString(link)
	if len(args) < 3 {
		return SubModule{}, fmt.Errorf("course link %q has %d argument tokens, expected at least 3", link, len(args))
	}
	id := InnerID(args[2])
	if id == "" {
		return SubModule{}, fmt.Errorf("course link %q has no embedded id", link)
	}

	// the course number is the first word of the title; a nameless
	// entry keeps an empty number rather than aborting the scrape
	var courseNumber string
	if fields := strings.Fields(name); len(fields) > 0 {
		courseNumber = fields[0]
	} else {
		slog.WarnContext(ctx, "course entry has no name", "id", id)
	}

	submodule := SubModule{
		ID:           id,
		CourseNumber: courseNumber,
		Name:         name,
		info:         unloadedFacet[CourseInfo](link),
		appointments: unloadedFacet[[]Appointment](link),
		groups:       unloadedFacet[[]Group](link),
	}

	if lazy == FullLazy {
		return submodule, nil
	}

	body, err := c.Invoke(ctx, ScreenCourseDetails, args)
	if err != nil {
		return SubModule{}, err
	}

	info, err := parseCourseInfo(body)
	if err != nil {
		return SubModule{}, err
	}
	submodule.info = loadedFacet(link, info)

	if err := parseDetailTables(ctx, c, body, &submodule, lazy, link); err != nil {
		return SubModule{}, err
	}
	return submodule, nil
}
