package commands

import (
	"fmt"

	"regassist-backend/lib/credentials"
	"regassist-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(encryptCmd)
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt <password>",
	Short: "Encrypts a password with the key and iv seed of the credentials config, for use as password_encrypted.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		encrypted, err := credentials.Encrypt(cfg.Credentials.Key, cfg.Credentials.Iv, args[0])
		if err != nil {
			serviceutil.Fatal("failed to encrypt password", err)
		}
		fmt.Println(encrypted)
	},
}
