package commands

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"stine-client/lib/notify"
	"stine-client/lib/util/serviceutil"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var (
	flagEvents        []string
	flagEmailAddress  string
	flagEmailPassword string
	flagSMTPHost      string
	flagSMTPPort      int
	flagNotifyDB      string
	flagDryRun        bool
	flagSendTestEmail bool
)

func init() {
	notifyCmd.Flags().StringSliceVarP(&flagEvents, "events", "e", nil,
		fmt.Sprintf("Events to notify about, any of %v. Defaults to all.", notify.AllEvents))
	notifyCmd.Flags().StringVar(&flagEmailAddress, "email-address", "", "Email address the notifications are sent from and to.")
	notifyCmd.Flags().StringVar(&flagEmailPassword, "email-password", "", "Password for the email address.")
	notifyCmd.Flags().StringVar(&flagSMTPHost, "smtp-host", "", "SMTP server address, e.g. smtp.gmail.com. Required if it can't be inferred from the address.")
	notifyCmd.Flags().IntVar(&flagSMTPPort, "smtp-port", 0, "SMTP server port, e.g. 587. Required if it can't be inferred from the address.")
	notifyCmd.Flags().StringVar(&flagNotifyDB, "db", "", "Path of the snapshot database used for change detection.")
	notifyCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Only print the notifications to stdout.")
	notifyCmd.Flags().BoolVar(&flagSendTestEmail, "send-test-email", false, "Send a test email to verify the email credentials, then exit.")
	notifyCmd.MarkFlagRequired("email-address")
	rootCmd.AddCommand(notifyCmd)
}

// stdoutMailer takes the place of the SMTP mailer on --dry-run.
type stdoutMailer struct{}

func (stdoutMailer) Send(subject, body string) error {
	fmt.Printf("--- %s ---\n%s\n", subject, body)
	return nil
}

func newNotifyMailer() notify.Mailer {
	if flagDryRun {
		return stdoutMailer{}
	}

	if flagSMTPHost != "" && flagSMTPPort != 0 {
		return notify.NewMailer(notify.Account{
			Address:  flagEmailAddress,
			Password: flagEmailPassword,
			SMTP:     notify.SMTPSettings{Host: flagSMTPHost, Port: flagSMTPPort},
		})
	}

	account, err := notify.NewAccount(flagEmailAddress, flagEmailPassword)
	if err != nil {
		serviceutil.Fatal("pass --smtp-host and --smtp-port", err)
	}
	return notify.NewMailer(account)
}

var notifyCmd = &cobra.Command{
	Use:   "notify --email-address <address> [--email-password <password>] [-e <events>...]",
	Short: "Email yourself about new exam results, documents and registration periods.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		mailer := newNotifyMailer()
		if flagSendTestEmail {
			if err := mailer.Send("STiNE notifier - test email", "Your email credentials work."); err != nil {
				serviceutil.Fatal("failed to send the test email", err)
			}
			fmt.Println("> Test email sent")
			return
		}

		var events []notify.Event
		for _, raw := range flagEvents {
			event, err := notify.ParseEvent(raw)
			if err != nil {
				serviceutil.Fatal("invalid --events value", err)
			}
			events = append(events, event)
		}

		dbPath := flagNotifyDB
		if dbPath == "" {
			if err := os.MkdirAll(configDir(), 0o755); err != nil {
				serviceutil.Fatal("failed to create the config directory", err)
			}
			dbPath = filepath.Join(configDir(), "notify.db")
		}
		database, err := sql.Open("sqlite", dbPath)
		if err != nil {
			serviceutil.Fatal("failed to open the snapshot database", err)
		}
		defer database.Close()

		store, err := notify.NewStore(database)
		if err != nil {
			serviceutil.Fatal("failed to initialize the snapshot database", err)
		}

		checker := notify.Checker{
			Client: connect(ctx),
			Store:  store,
			Mailer: mailer,
		}
		if err := checker.Run(ctx, events); err != nil {
			serviceutil.Fatal("notification run failed", err)
		}
	},
}
