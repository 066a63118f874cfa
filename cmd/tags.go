package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "list tags with usage counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		tags, err := a.store.Tags(cmd.Context())
		if err != nil {
			return err
		}

		for _, t := range tags {
			fmt.Printf("%5d  %s\n", t.Count, t.Name)
		}

		return nil
	},
}

var tagsRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "rename a tag everywhere, remotely and locally",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.updater.RenameTag(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("renamed %q to %q\n", args[0], args[1])

		return nil
	},
}

var tagsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "delete a tag everywhere, remotely and locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.updater.DeleteTag(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Println("deleted tag", args[0])

		return nil
	},
}

func init() {
	tagsCmd.AddCommand(tagsRenameCmd)
	tagsCmd.AddCommand(tagsRmCmd)
	rootCmd.AddCommand(tagsCmd)
}
