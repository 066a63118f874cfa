package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmarks/pinbook/internal/bookio"
	"github.com/pmarks/pinbook/internal/bookmark"
	"github.com/pmarks/pinbook/internal/query"
)

var (
	lsLimitFlag int
	lsJSONFlag  bool
)

var lsCmd = &cobra.Command{
	Use:   "ls [filter...]",
	Short: "list bookmarks, newest first",
	Long: `List bookmarks matching the given filter tokens.

Tokens combine with AND: plain words match title, url, notes and tags;
directives narrow further, e.g.

  pinbook ls tag:golang status:unread
  pinbook ls shared:false date:today sqlite`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		q := query.Parse(strings.Join(args, " "))

		bs, err := a.fetchBookmarks(cmd.Context(), q, lsLimitFlag)
		if err != nil {
			return err
		}

		if lsJSONFlag {
			return bookio.ExportJSON(os.Stdout, bs)
		}

		for _, b := range bs {
			printBookmark(b)
		}

		return nil
	},
}

func printBookmark(b *bookmark.Bookmark) {
	var marks []string
	if b.ToRead {
		marks = append(marks, "unread")
	}
	if !b.Shared {
		marks = append(marks, "private")
	}

	suffix := ""
	if len(marks) > 0 {
		suffix = " (" + strings.Join(marks, ", ") + ")"
	}

	fmt.Printf("%s  %s%s\n", b.Date.Local().Format("2006-01-02"), b.Title, suffix)
	fmt.Printf("            %s\n", b.URL)

	if len(b.Tags) > 0 {
		fmt.Printf("            #%s\n", strings.Join(b.Tags, " #"))
	}
}

func init() {
	lsCmd.Flags().IntVarP(&lsLimitFlag, "limit", "n", 0, "maximum number of bookmarks (0 for all)")
	lsCmd.Flags().BoolVar(&lsJSONFlag, "json", false, "print as JSON")
	rootCmd.AddCommand(lsCmd)
}
