package commands

import (
	"fmt"
	"log/slog"

	"regassist-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Logs in with the configured credentials, validates the session, prints the account's name and logs out.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()
		client := createClient(cfg)

		session := login(ctx, cfg, client)
		slog.Debug("logged in", "username", cfg.Credentials.Username)

		valid, err := client.IsValidSession(ctx, session)
		if err != nil {
			serviceutil.Fatal("failed to validate session", err)
		}
		name, ok, err := client.GetName(ctx, session)
		if err != nil {
			serviceutil.Fatal("failed to get name", err)
		}

		fmt.Printf("valid: %v\n", valid)
		if ok {
			fmt.Printf("name: %s\n", name)
		} else {
			fmt.Println("name: <not authenticated>")
		}

		err = client.Logout(ctx, session)
		if err != nil {
			serviceutil.Fatal("failed to logout", err)
		}
	},
}
