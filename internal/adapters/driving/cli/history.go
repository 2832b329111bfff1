package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

const defaultHistoryLimit = 20

var historyFlags struct {
	limit int
	json  bool
}

var historyCmd = &cobra.Command{
	Use:         "history",
	Short:       "List recent vetting runs",
	Long:        `List summaries of recent vetting runs, newest first. Payloads are never stored.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsServices},
	RunE:        runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:         "show <run-id>",
	Short:       "Show one vetting run",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNeeds: needsServices},
	RunE:        runHistoryShow,
}

func init() {
	historyCmd.PersistentFlags().BoolVar(&historyFlags.json, "json", false, "print as JSON")
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", defaultHistoryLimit, "number of runs to list (0 = all)")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	recs, err := historyService.List(cmd.Context(), historyFlags.limit)
	if err != nil {
		return err
	}
	if historyFlags.json {
		return writeJSON(cmd, recordsJSON(recs))
	}
	if len(recs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No vetting runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSTARTED\tCOMPANY\tSUCCEEDED\tDURATION")
	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
			rec.ID,
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			rec.CompanyName,
			rec.Summary.Success, rec.Summary.Total,
			rec.Duration.Round(time.Millisecond))
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	rec, err := historyService.Get(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return errors.WithHint(errors.Newf("run %s not found", args[0]), "list runs with 'vetta history'")
	}
	if err != nil {
		return err
	}
	if historyFlags.json {
		return writeJSON(cmd, recordJSON(rec))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", rec.ID)
	fmt.Fprintf(out, "Company:  %s\n", rec.CompanyName)
	if rec.Request.ProfileURL != "" {
		fmt.Fprintf(out, "Profile:  %s\n", rec.Request.ProfileURL)
	}
	if rec.Request.Domain != "" {
		fmt.Fprintf(out, "Domain:   %s\n", rec.Request.Domain)
	}
	if rec.Request.RegistryNumber != "" {
		fmt.Fprintf(out, "ABN:      %s\n", rec.Request.RegistryNumber)
	}
	fmt.Fprintf(out, "Started:  %s\n", rec.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Duration: %s\n", rec.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Result:   %d/%d sources succeeded (%d failed, %d skipped)\n",
		rec.Summary.Success, rec.Summary.Total, rec.Summary.Failed, rec.Summary.Skipped)
	for _, src := range rec.Summary.Sources {
		line := fmt.Sprintf("  %s %s", stateStyle(src.State).Render(stateLabel(src.State)), src.Key)
		if src.Message != "" {
			line += style.Muted.Render(" " + src.Message)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

type runJSON struct {
	ID          string              `json:"id"`
	CompanyName string              `json:"company_name"`
	Request     domain.FetchRequest `json:"request"`
	StartedAt   time.Time           `json:"started_at"`
	DurationMS  int64               `json:"duration_ms"`
	Summary     domain.Summary      `json:"summary"`
}

func recordJSON(rec *domain.RunRecord) runJSON {
	return runJSON{
		ID:          rec.ID,
		CompanyName: rec.CompanyName,
		Request:     rec.Request,
		StartedAt:   rec.StartedAt,
		DurationMS:  rec.Duration.Milliseconds(),
		Summary:     rec.Summary,
	}
}

func recordsJSON(recs []*domain.RunRecord) []runJSON {
	out := make([]runJSON, len(recs))
	for i, rec := range recs {
		out[i] = recordJSON(rec)
	}
	return out
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
