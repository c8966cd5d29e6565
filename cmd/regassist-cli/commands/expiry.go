package commands

import (
	"log/slog"
	"time"

	"regassist-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var expiryInterval *time.Duration

func init() {
	expiryInterval = expiryCmd.Flags().Duration("interval", time.Minute*15, "How long to wait between validity checks.")
	rootCmd.AddCommand(expiryCmd)
}

var expiryCmd = &cobra.Command{
	Use:   "expiry [--interval <duration>]",
	Short: "Logs in and checks the session until the portal expires it, this never sends a keep-alive.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()
		client := createClient(cfg)

		session := login(ctx, cfg, client)
		began := time.Now()
		slog.Info("began", "at", began)

		ticker := time.NewTicker(*expiryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			valid, err := client.IsValidSession(ctx, session)
			if err != nil {
				serviceutil.Fatal("failed to check session", err)
			}
			if !valid {
				slog.Info("expired", "at", time.Now(), "after", time.Since(began).Round(time.Second))
				return
			}
			slog.Info("was alive", "at", time.Now(), "after", time.Since(began).Round(time.Second))
		}
	},
}
