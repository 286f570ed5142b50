package commands

import (
	"fmt"

	"stine-client/lib/scrapers/stine"
	"stine-client/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	flagSemesters []string
	flagGradeAvg  bool
)

func init() {
	resultsCmd.Flags().StringSliceVarP(&flagSemesters, "semesters", "s", nil,
		`Semesters to fetch, e.g. "SuSe22" or "WiSe 21/22". Defaults to all.`)
	resultsCmd.Flags().BoolVar(&flagGradeAvg, "grade-avg", false,
		"Show the grade average of each course. Roughly doubles the requests made to the portal.")
	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results [-s <semesters>...] [--grade-avg]",
	Short: "Print exam results per semester.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := connect(ctx)

		// with the course averages requested, skip the lazy facets so
		// the stats arrive in the same pass
		lazy := stine.FullLazy
		if flagGradeAvg {
			lazy = stine.NotLazy
		}

		var results []stine.SemesterResult
		var err error
		if len(flagSemesters) == 0 {
			results, err = client.AllSemesterResults(ctx, lazy)
		} else {
			var semesters []stine.Semester
			for _, raw := range flagSemesters {
				semester, err := stine.ParseSemester(raw)
				if err != nil {
					serviceutil.Fatal("invalid semester", err)
				}
				semesters = append(semesters, semester)
			}
			results, err = client.SemesterResults(ctx, semesters, lazy)
		}
		if err != nil {
			serviceutil.Fatal("failed to fetch semester results", err)
		}

		t := newTable()
		header := table.Row{"ID", "Name", "Final grade", "Credits", "Status"}
		if flagGradeAvg {
			header = append(header, "Grade avg")
		}
		t.AppendHeader(header)

		for _, result := range results {
			for i := range result.Courses {
				course := &result.Courses[i]
				row := table.Row{course.Number, course.Name, orDash(course.FinalGrade), course.Credits, course.Status}
				if flagGradeAvg {
					row = append(row, courseAverage(cmd, client, course))
				}
				t.AppendRow(row)
			}
			t.AppendRow(table.Row{
				fmt.Sprintf("Semester [%s]", result.Semester),
				"",
				orDash(result.GPA),
				result.Credits,
				"",
			})
			t.AppendSeparator()
		}
		t.Render()
	},
}

func courseAverage(cmd *cobra.Command, client *stine.Client, course *stine.CourseResult) string {
	if !course.HasGradeStats() {
		return "-"
	}
	stats, err := course.GradeStats(cmd.Context(), client)
	if err != nil {
		return "-"
	}
	return orDash(stats.Average)
}
