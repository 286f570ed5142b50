package commands

import (
	"fmt"

	"stine-client/lib/scrapers/stine"
	"stine-client/lib/util/serviceutil"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check your credentials and the connection to the portal.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to load credentials", err)
		}

		client, err := stine.NewClient(ctx, cfg.Username, cfg.Password, stine.ClientOptions{})
		if err != nil {
			// tell a dead network from a rejecting portal
			if _, pingErr := resty.New().R().SetContext(ctx).Get("https://www.google.com"); pingErr != nil {
				serviceutil.Fatal("can't reach the network, is your internet connection up?", pingErr)
			}
			serviceutil.Fatal("network is fine but the portal rejected the login", err)
		}

		saveSession(cfg, client)
		fmt.Printf("%s is available and your credentials work\n", stine.BaseURL)
	},
}
