package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/terra-clan/aptitude-engine/internal/catalog"
	"github.com/terra-clan/aptitude-engine/internal/config"
	"github.com/terra-clan/aptitude-engine/internal/models"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the topic catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the catalog and report invalid topics and questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		problems := loader.Problems()
		for _, p := range problems {
			cmd.PrintErrln("invalid:", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("catalog has %d problem(s)", len(problems))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "catalog ok: %d topics\n", len(loader.ListTopics()))
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics with question counts per difficulty",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOPIC\tTITLE\tEASY\tMEDIUM\tHARD")
		for _, t := range loader.ListTopics() {
			counts := loader.Counts(t.ID)
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", t.ID, t.Title,
				counts[models.DifficultyEasy], counts[models.DifficultyMedium], counts[models.DifficultyHard])
		}
		return w.Flush()
	},
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogListCmd)
}

func loadCatalog(cmd *cobra.Command) (*catalog.Loader, error) {
	dir := flagOr(cmd, "catalog", config.FromEnv().Catalog.Dir)

	loader := catalog.NewLoader()
	if err := loader.LoadFromDir(dir); err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", dir, err)
	}
	return loader, nil
}
