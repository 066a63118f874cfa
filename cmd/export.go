package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pmarks/pinbook/internal/bookio"
	"github.com/pmarks/pinbook/internal/query"
)

var (
	exportFormatFlag string
	exportOutputFlag string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "export all bookmarks as Netscape HTML or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		bs, err := a.fetchBookmarks(cmd.Context(), query.All{}, 0)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if exportOutputFlag != "" {
			f, err := os.Create(exportOutputFlag)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		switch exportFormatFlag {
		case "html":
			return bookio.ExportNetscape(w, bs)
		case "json":
			return bookio.ExportJSON(w, bs)
		default:
			return fmt.Errorf("unknown format %q", exportFormatFlag)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormatFlag, "format", "f", "html", "output format [html|json]")
	exportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
