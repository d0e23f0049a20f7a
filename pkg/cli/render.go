package cli

import (
	"fmt"

	"article-cms/pkg/services"

	"github.com/spf13/cobra"
)

var renderJSON bool

var renderCmd = &cobra.Command{
	Use:   "render <path>",
	Short: "Render one article",
	Long:  "Render prints the rendered body of an article as HTML, or the full record with --json.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := newComponents()
		if err != nil {
			return err
		}
		doc, err := comps.store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		article, err := services.ParseArticle(doc.Path, doc.Source)
		if err != nil {
			return err
		}
		rendered, err := comps.renderer.Render(article)
		if err != nil {
			return err
		}
		if renderJSON {
			return writeJSON(cmd.OutOrStdout(), rendered)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), rendered.RenderedBody)
		return err
	},
}

func init() {
	renderCmd.Flags().BoolVar(&renderJSON, "json", false, "print title, description, date and rendered body as JSON")
	rootCmd.AddCommand(renderCmd)
}
