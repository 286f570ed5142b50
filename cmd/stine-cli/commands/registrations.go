package commands

import (
	"fmt"

	"stine-client/lib/scrapers/stine"
	"stine-client/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var flagReduce bool

func init() {
	registrationsCmd.Flags().BoolVarP(&flagReduce, "reduce", "r", false,
		"Reduce requests made to the portal. Skips the per-course type lookup used for colorized output.")
	rootCmd.AddCommand(registrationsCmd)
}

// eventTypeColor maps a course type to its display color, matching
// the timetable legend of the portal.
func eventTypeColor(eventType *stine.EventType) text.Color {
	if eventType == nil {
		return text.FgWhite
	}
	switch *eventType {
	case stine.Lecture:
		return text.FgBlue
	case stine.Exercise:
		return text.FgGreen
	case stine.Project, stine.Internship:
		return text.FgRed
	case stine.Seminar, stine.Proseminar, stine.GPSCourse:
		return text.FgMagenta
	case stine.Tutorial:
		return text.FgCyan
	}
	return text.FgWhite
}

var registrationsCmd = &cobra.Command{
	Use:   "registrations [--reduce]",
	Short: "Print the registration status of all applied modules and courses.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := connect(ctx)

		registrations, err := client.Registrations(ctx, stine.FullLazy)
		if err != nil {
			serviceutil.Fatal("failed to fetch registrations", err)
		}

		printSubModules(cmd, client, "pending", registrations.PendingSubModules)
		printSubModules(cmd, client, "accepted", registrations.AcceptedSubModules)
		printSubModules(cmd, client, "rejected", registrations.RejectedSubModules)

		t := newTable()
		t.AppendHeader(table.Row{"accepted modules"})
		for _, module := range registrations.AcceptedModules {
			t.AppendRow(table.Row{fmt.Sprintf("%s %s", module.Number, module.Name)})
		}
		t.Render()
	},
}

func printSubModules(cmd *cobra.Command, client *stine.Client, status string, subs []stine.SubModule) {
	t := newTable()
	t.AppendHeader(table.Row{status})
	for i := range subs {
		name := subs[i].Name
		// the course type costs one request per course, --reduce
		// trades the colors for speed
		if !flagReduce {
			info, err := subs[i].Info(cmd.Context(), client)
			if err == nil {
				name = eventTypeColor(info.EventType).Sprint(name)
			}
		}
		t.AppendRow(table.Row{name})
	}
	t.Render()
	fmt.Println()
}
