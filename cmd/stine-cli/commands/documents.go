package commands

import (
	"stine-client/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(periodsCmd)
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Print the account's downloadable documents.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := connect(ctx)

		documents, err := client.Documents(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch documents", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Name", "Created", "Status"})
		for _, doc := range documents {
			t.AppendRow(table.Row{doc.Name, doc.Created.Format("2006-01-02 15:04"), doc.Status})
		}
		t.Render()
	},
}

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "Print the registration periods of the current semester.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := connect(ctx)

		periods, err := client.RegistrationPeriods(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch registration periods", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Period", "Start", "End"})
		for _, period := range periods {
			t.AppendRow(table.Row{
				period.Kind,
				period.Period.Start.Format("2006-01-02 15:04"),
				period.Period.End.Format("2006-01-02 15:04"),
			})
		}
		t.Render()
	},
}
