package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stine-client/lib/configutil"
	"stine-client/lib/scrapers/stine"
	"stine-client/lib/telemetry"
	"stine-client/lib/timezone"
	"stine-client/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// Config is the CLI's credential file. The session pair is written
// back after every run so the next invocation can skip the login
// handshake.
type Config struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Session    string `json:"session,omitempty"`
	CnscCookie string `json:"cnsc_cookie,omitempty"`
	// unix timestamp of the last run, resumed sessions older than
	// sessionMaxAge are not even attempted
	LastUsed int64 `json:"last_used,omitempty"`
}

const sessionMaxAge = 30 * time.Minute

var (
	flagUsername   string
	flagPassword   string
	flagSaveConfig bool
	flagLanguage   string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "stine-cli",
	Short: "stine-cli scrapes the STiNE campus portal of the University of Hamburg.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUsername, "username", "", "Username for the portal login. Alternatively kept in the config file.")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "Password for the portal login. Alternatively kept in the config file.")
	rootCmd.PersistentFlags().BoolVar(&flagSaveConfig, "save-config", false, "Save username and password to the config file.")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "", "Portal language, de or en. Changes the account setting and all scraped output.")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".stine-cli"
	}
	return filepath.Join(base, "stine-cli")
}

func configPath() string {
	return filepath.Join(configDir(), "config.json5")
}

func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](configPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	if flagUsername != "" {
		cfg.Username = flagUsername
	}
	if flagPassword != "" {
		cfg.Password = flagPassword
	}
	if cfg.Username == "" || cfg.Password == "" {
		return Config{}, fmt.Errorf(
			"no credentials found in %s, pass --username and --password (add --save-config to remember them)",
			configPath())
	}
	return cfg, nil
}

// connect authenticates against the portal, resuming a recent session
// when the config file carries one, and persists the (possibly new)
// session pair afterwards.
func connect(ctx context.Context) *stine.Client {
	cfg, err := loadConfig()
	if err != nil {
		serviceutil.Fatal("failed to load credentials", err)
	}

	client := authenticate(ctx, cfg)

	if flagLanguage != "" {
		lang, err := stine.ParseLanguage(flagLanguage)
		if err != nil {
			serviceutil.Fatal("invalid --language", err)
		}
		if err := client.SetLanguage(ctx, lang); err != nil {
			serviceutil.Fatal("failed to switch portal language", err)
		}
	}

	saveSession(cfg, client)
	return client
}

func authenticate(ctx context.Context, cfg Config) *stine.Client {
	opts := stine.ClientOptions{}

	lastUsed := time.Unix(cfg.LastUsed, 0)
	if cfg.Session != "" && cfg.CnscCookie != "" && timezone.Now().Sub(lastUsed) < sessionMaxAge {
		client, err := stine.ResumeSession(ctx, stine.SessionCredentials{
			Cookie:  cfg.CnscCookie,
			Session: cfg.Session,
		}, opts)
		if err == nil {
			fmt.Println("> Authenticated using the saved session")
			return client
		}
		fmt.Println("> Saved session expired, logging in with credentials")
	}

	client, err := stine.NewClient(ctx, cfg.Username, cfg.Password, opts)
	if err != nil {
		serviceutil.Fatal("failed to authenticate with the portal", err)
	}
	return client
}

// saveSession writes the session pair back so the next run can resume
// it. Credentials are only persisted when --save-config is given.
func saveSession(cfg Config, client *stine.Client) {
	_, statErr := os.Stat(configPath())
	if statErr != nil && !flagSaveConfig {
		return
	}

	creds := client.Credentials()
	cfg.Session = creds.Session
	cfg.CnscCookie = creds.Cookie
	cfg.LastUsed = timezone.Now().Unix()

	if err := configutil.WriteConfig(configPath(), cfg); err != nil {
		serviceutil.Fatal("failed to persist session", err)
	}
	if flagSaveConfig {
		fmt.Printf("> Saved credentials and session to %s\n", configPath())
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func orDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%v", *v)
}
