package stine

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// MyRegistrations groups the account's module and course
// registrations by their current status.
type MyRegistrations struct {
	PendingSubModules  []SubModule
	AcceptedSubModules []SubModule
	RejectedSubModules []SubModule
	AcceptedModules    []Module
}

// Registrations returns the registration status overview. Entities
// already known to the entity cache are served from it, newly seen
// ones are scraped and inserted; afterwards the cache is flushed to
// disk.
func (c *Client) Registrations(ctx context.Context, lazy LazyLevel) (MyRegistrations, error) {
	ctx, span := tracer.Start(ctx, "client:Registrations")
	defer span.End()

	body, err := c.Invoke(ctx, ScreenMyRegistrations, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return MyRegistrations{}, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return MyRegistrations{}, err
	}

	// the page renders four tables in a fixed order
	tables := doc.Find("table")
	if tables.Length() < 4 {
		return MyRegistrations{}, fmt.Errorf("registration status page has %d tables, expected 4", tables.Length())
	}

	var out MyRegistrations
	if out.PendingSubModules, err = c.parseSubModulesTable(ctx, tables.Eq(0), lazy); err != nil {
		return MyRegistrations{}, err
	}
	if out.AcceptedSubModules, err = c.parseSubModulesTable(ctx, tables.Eq(1), lazy); err != nil {
		return MyRegistrations{}, err
	}
	if out.RejectedSubModules, err = c.parseSubModulesTable(ctx, tables.Eq(2), lazy); err != nil {
		return MyRegistrations{}, err
	}
	if out.AcceptedModules, err = c.parseModulesTable(ctx, tables.Eq(3), lazy); err != nil {
		return MyRegistrations{}, err
	}

	if err := c.saveMaps(); err != nil {
		return MyRegistrations{}, err
	}
	return out, nil
}

func (c *Client) parseSubModulesTable(ctx context.Context, table *goquery.Selection, lazy LazyLevel) ([]SubModule, error) {
	var submodules []SubModule

	var outerErr error
	table.Find("tbody > tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		anchor := row.Find("a").First()
		if anchor.Length() == 0 {
			return true
		}

		args := ParseArgString(anchor.AttrOr("href", ""))
		if len(args) < 3 {
			return true
		}
		id := InnerID(args[2])

		c.loadMaps()
		if cached, ok := c.submodules[id]; ok {
			// a group entry shares its parent course's id but shows
			// its own name; only a matching name means it is really
			// the cached course
			if cached.Name == strings.TrimSpace(anchor.Text()) {
				submodules = append(submodules, cached)
				return true
			}
		}

		cell, err := firstSel(row, ".dl-inner")
		if err != nil {
			outerErr = err
			return false
		}
		submodule, err := c.parseSubModule(ctx, cell, lazy)
		if err != nil {
			outerErr = err
			return false
		}
		c.addSubModule(submodule)
		submodules = append(submodules, submodule)
		return true
	})

	return submodules, outerErr
}

func (c *Client) parseModulesTable(ctx context.Context, table *goquery.Selection, lazy LazyLevel) ([]Module, error) {
	var modules []Module

	var outerErr error
	table.Find("tbody > tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		anchor := row.Find("a").First()
		if anchor.Length() == 0 {
			return true
		}

		fields := strings.Fields(anchor.Text())
		if len(fields) == 0 {
			return true
		}
		number := fields[0]

		c.loadMaps()
		if cached, ok := c.modules[number]; ok {
			modules = append(modules, cached)
			return true
		}

		cell, err := firstSel(row, ".dl-inner")
		if err != nil {
			outerErr = err
			return false
		}
		module, err := c.parseModule(ctx, cell, lazy)
		if err != nil {
			outerErr = err
			return false
		}
		c.addModule(module)
		modules = append(modules, module)
		return true
	})

	return modules, outerErr
}
