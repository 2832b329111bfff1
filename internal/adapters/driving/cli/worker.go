package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/isolation"
)

var workerHandoff string

// workerCmd is the child side of the isolated execution boundary. It is
// started by the parent vetta process, never by users.
var workerCmd = &cobra.Command{
	Use:         "worker <source>",
	Short:       "Run one source in an isolated worker process",
	Hidden:      true,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runWorker,
}

func init() {
	workerCmd.Flags().StringVar(&workerHandoff, "handoff", "", "file to write the result envelope to")
	_ = workerCmd.MarkFlagRequired("handoff")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	key, err := domain.ParseSourceKey(args[0])
	if err != nil {
		return err
	}
	if wiring.WorkerSource == nil {
		return errors.New("worker sources not configured")
	}

	src, err := wiring.WorkerSource(cmd.Context(), configStore, key)
	if err != nil {
		// The parent still needs an envelope to report.
		werr := isolation.WriteEnvelope(workerHandoff, &isolation.Envelope{Error: err.Error()})
		return errors.CombineErrors(errors.Wrapf(err, "build %s worker", key), werr)
	}
	return isolation.RunWorker(cmd.Context(), src, cmd.InOrStdin(), workerHandoff)
}
