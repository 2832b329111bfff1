package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

var sourcesCmd = &cobra.Command{
	Use:         "sources",
	Short:       "List the data sources and their required inputs",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsServices},
	RunE:        runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if vettingService == nil {
		return errors.New("vetting service not configured")
	}
	enabled := vettingService.Sources()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tSTATUS\tREQUIRES\tDESCRIPTION")
	for _, spec := range domain.SourceCatalogue() {
		status := "excluded"
		if slices.Contains(enabled, spec.Key) {
			status = "enabled"
		}
		if spec.Isolated {
			status += " (isolated)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", spec.Key, status, strings.Join(spec.Requires, ", "), spec.Description)
	}
	return w.Flush()
}
