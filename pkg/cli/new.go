package cli

import (
	"fmt"
	"strings"

	"article-cms/pkg/config"
	"article-cms/pkg/services"

	"github.com/spf13/cobra"
)

var (
	newTitle       string
	newDescription string
	newCollection  string
)

var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Create an article from its collection template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := newComponents()
		if err != nil {
			return err
		}
		p := args[0]
		if !strings.HasSuffix(p, ".md") {
			p += ".md"
		}

		cfg, err := services.GetCMSConfig(config.RepoPath, config.CMSConfigPath)
		if err != nil {
			logger.Debug("no cms config, using the default template")
		}
		overrides := map[string]interface{}{}
		if newTitle != "" {
			overrides["title"] = newTitle
		}
		if newDescription != "" {
			overrides["description"] = newDescription
		}
		content, err := services.NewArticleContent(cfg, config.ContentDir, p, newCollection, overrides)
		if err != nil {
			return err
		}
		if err := comps.store.Create(cmd.Context(), p, content); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
		okColor.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", p, services.SlugForPath(p))
		return nil
	},
}

func init() {
	newCmd.Flags().StringVar(&newTitle, "title", "", "article title")
	newCmd.Flags().StringVar(&newDescription, "description", "", "article description")
	newCmd.Flags().StringVar(&newCollection, "collection", "", "collection template to use")
	rootCmd.AddCommand(newCmd)
}
