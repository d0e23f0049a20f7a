package cli

import (
	"article-cms/pkg/services"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the articles of the collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := newComponents()
		if err != nil {
			return err
		}
		articles, err := comps.store.Articles(cmd.Context())
		if err != nil {
			return err
		}
		if listJSON {
			return writeJSON(cmd.OutOrStdout(), articles)
		}

		rows := make([][]string, 0, len(articles))
		for _, a := range articles {
			status := "ok"
			if a.Error != "" {
				status = "invalid"
			} else if a.IsDirty {
				status = "modified"
			}
			rows = append(rows, []string{a.Slug, a.Title, services.FormatDate(a.Date), status})
		}
		return newTable(cmd.OutOrStdout(), []string{"Slug", "Title", "Date", "Status"}, rows)
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the listing as JSON")
	rootCmd.AddCommand(listCmd)
}
