package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmarks/pinbook/internal/bookio"
	"github.com/pmarks/pinbook/internal/bookmark"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "import bookmarks from a Netscape HTML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer f.Close()

		var bs []*bookmark.Bookmark

		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".html", ".htm":
			bs, err = bookio.ParseNetscape(f)
		case ".json":
			bs, err = bookio.ParseJSON(f)
		default:
			return fmt.Errorf("unsupported import format %q", filepath.Ext(args[0]))
		}
		if err != nil {
			return err
		}

		if err := a.updater.UpdateBookmarks(cmd.Context(), bs); err != nil {
			return err
		}

		fmt.Printf("imported %d bookmarks\n", len(bs))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
