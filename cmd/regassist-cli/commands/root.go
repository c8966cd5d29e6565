package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"regassist-backend/lib/configutil"
	"regassist-backend/lib/credentials"
	"regassist-backend/lib/restyutil"
	"regassist-backend/lib/scrapers/portal"
	"regassist-backend/lib/serviceutil"
	"regassist-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

type PortalConfig struct {
	BaseUrl string `json:"base_url"`
	TermId  string `json:"term_id"`
}

type Config struct {
	Portal      PortalConfig       `json:"portal"`
	Credentials credentials.Config `json:"credentials"`
}

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "regassist-cli",
	Short: "regassist-cli is a CLI for poking at the registration portal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !*verbose {
			return
		}
		telemetry.InitSlog(true)
		out, err := restyutil.NewFilesystemOutput("<dev_state>/resty_telemetry/cli")
		if err != nil {
			serviceutil.Fatal("failed to create resty telemetry output", err)
		}
		portal.SetRestyInstrumentOutput(out)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log and dump every request made to the portal.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Portal.TermId == "" {
		cfg.Portal.TermId = "3202320"
	}
	return cfg
}

func createClient(cfg Config) *portal.Client {
	client, err := portal.NewClient(portal.ClientOptions{
		BaseUrl: cfg.Portal.BaseUrl,
		TermId:  cfg.Portal.TermId,
		Timeout: time.Second * 30,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize portal client", err)
	}
	return client
}

// login logs in with the configured credentials, exiting when the portal
// refuses them.
func login(ctx context.Context, cfg Config, client *portal.Client) portal.Session {
	password, err := cfg.Credentials.GetPassword()
	if err != nil {
		serviceutil.Fatal("failed to get password", err)
	}
	session, err := client.Login(ctx, cfg.Credentials.Username, password)
	if err != nil {
		serviceutil.Fatal("failed to login", err)
	}
	if session == portal.NoSession {
		serviceutil.Fatal("failed to login", fmt.Errorf("portal rejected the credentials of %q", cfg.Credentials.Username))
	}
	return session
}
