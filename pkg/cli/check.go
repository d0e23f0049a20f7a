package cli

import (
	"errors"
	"fmt"

	"article-cms/pkg/config"

	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("structural check failed")

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Run structural checks on articles",
	Long: `Check verifies every article of the collection: title and date present,
date parseable, description present, code fences balanced, internal links
pointing at existing articles and rendering deterministic.

Links are always resolved against the whole collection; paths only narrow
which findings are printed. A path may be given relative to the content
directory or with the content directory in front; a path that names no
article is an error. The command fails when any error is found.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	comps, err := newComponents()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	docs, err := comps.store.Documents(ctx)
	if err != nil {
		return err
	}
	report, err := comps.checker.CheckCollection(ctx, docs)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		if report, err = report.Narrow(docs, args, config.ContentDir); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if checkJSON {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else {
		for _, f := range report.Findings {
			printFinding(out, f)
		}
		summary := fmt.Sprintf("%d articles checked, %d errors, %d warnings",
			report.Checked, len(report.Errors()), len(report.Warnings()))
		if report.HasErrors() {
			errorColor.Fprintln(out, summary)
		} else {
			okColor.Fprintln(out, summary)
		}
	}

	if report.HasErrors() {
		return errCheckFailed
	}
	return nil
}
