package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "forget the stored token and clear the local store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.updater.Logout(cmd.Context()); err != nil {
			return err
		}

		fmt.Println("logged out")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
