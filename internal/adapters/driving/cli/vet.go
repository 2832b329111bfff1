package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
)

var vetFlags struct {
	profileURL string
	domain     string
	abn        string
	json       bool
	report     bool
	docs       []string
	deadline   time.Duration
}

var vetCmd = &cobra.Command{
	Use:   "vet <company name>",
	Short: "Gather vetting information about a company",
	Long: `Query every configured source about a company and print the combined dossier.

Each source needs its own input: the profile sources need --profile-url,
traffic statistics need --domain and the risk report needs --abn. A source
whose input is missing is listed as skipped; it never fails the run.

Examples:
  vetta vet "Acme Pty Ltd" --abn "51 824 753 556" --domain acme.com.au
  vetta vet "Acme Pty Ltd" --report --doc financials.txt`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationNeeds: needsServices},
	RunE:        runVet,
}

func init() {
	f := vetCmd.Flags()
	f.StringVar(&vetFlags.profileURL, "profile-url", "", "company profile page URL")
	f.StringVar(&vetFlags.domain, "domain", "", "company website domain")
	f.StringVar(&vetFlags.abn, "abn", "", "Australian Business Number")
	f.BoolVar(&vetFlags.json, "json", false, "print the full result as JSON")
	f.BoolVar(&vetFlags.report, "report", false, "also write an LLM vetting report")
	f.StringArrayVar(&vetFlags.docs, "doc", nil, "supporting text document for the report (repeatable)")
	f.DurationVar(&vetFlags.deadline, "deadline", 0, "overall deadline for the run (default from pipeline.deadline)")
	rootCmd.AddCommand(vetCmd)
}

func runVet(cmd *cobra.Command, args []string) error {
	if vettingService == nil {
		return errors.New("vetting service not configured")
	}

	docs, err := readDocuments(vetFlags.docs)
	if err != nil {
		return err
	}

	req := domain.FetchRequest{
		CompanyName:    strings.Join(args, " "),
		ProfileURL:     vetFlags.profileURL,
		Domain:         vetFlags.domain,
		RegistryNumber: vetFlags.abn,
	}
	opts := driving.VetOptions{
		Deadline:  vetFlags.deadline,
		Report:    vetFlags.report,
		Documents: docs,
	}

	res, err := vettingService.Vet(cmd.Context(), req, opts)
	if err != nil {
		return err
	}

	if vetFlags.json {
		return writeVetJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, res.Dossier)
	if res.Report != "" {
		fmt.Fprintf(out, "\n\n=== VETTING REPORT ===\n%s\n", res.Report)
	}
	printSummary(cmd.ErrOrStderr(), res)
	return nil
}

type vetJSON struct {
	Result  *domain.PipelineResult `json:"result"`
	Summary domain.Summary         `json:"summary"`
	Report  string                 `json:"report,omitempty"`
	// ReportError explains why a requested report is missing.
	ReportError string `json:"report_error,omitempty"`
}

func writeVetJSON(w io.Writer, res *driving.VetResult) error {
	out := vetJSON{Result: res.Result, Summary: res.Summary, Report: res.Report}
	if res.ReportErr != nil {
		out.ReportError = res.ReportErr.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// printSummary writes the one-line-per-source status block.
func printSummary(w io.Writer, res *driving.VetResult) {
	s := res.Summary
	fmt.Fprintln(w)
	fmt.Fprintln(w, style.Title.Render(fmt.Sprintf("%d/%d sources succeeded", s.Success, s.Total)))
	for _, src := range s.Sources {
		line := fmt.Sprintf("  %s %s", stateStyle(src.State).Render(stateLabel(src.State)), src.Key)
		if src.Message != "" {
			line += style.Muted.Render(" " + src.Message)
		}
		fmt.Fprintln(w, line)
	}
	if res.Result != nil {
		fmt.Fprintln(w, style.Muted.Render(fmt.Sprintf("run %s in %s", res.Result.RunID, res.Result.Duration.Round(time.Millisecond))))
	}
	if res.ReportErr != nil {
		fmt.Fprintln(w, style.Warning.Render("report not written: "+res.ReportErr.Error()))
	}
}

// readDocuments loads supporting documents. Only plain text is accepted.
func readDocuments(paths []string) ([]driving.Document, error) {
	docs := make([]driving.Document, 0, len(paths))
	for _, path := range paths {
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil, errors.WithHint(
				errors.Newf("%s: PDF documents are not supported", path),
				"convert the document to text first, e.g. with pdftotext",
			)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read document")
		}
		docs = append(docs, driving.Document{Name: filepath.Base(path), Content: string(data)})
	}
	return docs, nil
}
