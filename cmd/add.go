package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmarks/pinbook/internal/bookmark"
)

var (
	addTagsFlag   string
	addNotesFlag  string
	addUnreadFlag bool
	addSharedFlag bool
)

var addCmd = &cobra.Command{
	Use:   "add <url> [title]",
	Short: "save a bookmark locally and push it to the remote service",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		bURL := args[0]
		title := bURL
		if len(args) == 2 {
			title = args[1]
		}

		b := bookmark.New(bookmark.HashURL(bURL), bURL, title,
			bookmark.ParseTags(addTagsFlag), time.Now().UTC())
		b.Notes = addNotesFlag
		b.ToRead = addUnreadFlag
		b.Shared = addSharedFlag

		if err := a.updater.UpdateBookmarks(cmd.Context(), []*bookmark.Bookmark{b}); err != nil {
			return err
		}

		fmt.Println("added", bURL)

		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addTagsFlag, "tags", "t", "", "comma or space separated tags")
	addCmd.Flags().StringVar(&addNotesFlag, "notes", "", "extended notes")
	addCmd.Flags().BoolVar(&addUnreadFlag, "unread", false, "mark as read later")
	addCmd.Flags().BoolVar(&addSharedFlag, "shared", false, "make the bookmark public")
	rootCmd.AddCommand(addCmd)
}
