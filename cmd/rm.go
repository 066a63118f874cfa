package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmarks/pinbook/internal/bookmark"
)

var rmCmd = &cobra.Command{
	Use:   "rm <url-or-id>",
	Short: "delete a bookmark locally and from the remote service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		b, err := a.store.Bookmark(cmd.Context(), args[0])
		if errors.Is(err, bookmark.ErrNotFound) {
			b, err = a.store.Bookmark(cmd.Context(), bookmark.HashURL(args[0]))
		}
		if err != nil {
			return err
		}

		if err := a.updater.DeleteBookmarks(cmd.Context(), []*bookmark.Bookmark{b}); err != nil {
			return err
		}

		fmt.Println("removed", b.URL)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
