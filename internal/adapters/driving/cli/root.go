// Package cli provides the vetta command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vetta/internal/config"
	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
	"github.com/custodia-labs/vetta/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Exit codes.
const (
	exitError   = 1
	exitInvalid = 2
)

// Command annotations controlling what PersistentPreRunE prepares.
// Commands without the annotation get logging only.
const (
	annotationNeeds = "vetta.needs"
	needsConfig     = "config"
	needsServices   = "services"
)

// Wiring connects the CLI to the application. It is set once by main.
type Wiring struct {
	// OpenConfig opens the configuration store in dir, or the default
	// location when dir is empty.
	OpenConfig func(dir string) (driven.ConfigStore, error)

	// Build creates the services for a run from the loaded configuration.
	Build func(ctx context.Context, store driven.ConfigStore) (*Services, error)

	// WorkerSource builds the adapter an isolated worker process runs.
	WorkerSource func(ctx context.Context, store driven.ConfigStore, key domain.SourceKey) (driven.SourceAdapter, error)
}

// Services are the driving ports the commands use.
type Services struct {
	Vetting  driving.VettingService
	History  driving.HistoryService
	Settings *config.Settings
	// Close releases resources. Optional.
	Close func() error
}

var (
	wiring Wiring

	// Populated by PersistentPreRunE, or directly by tests.
	configStore    driven.ConfigStore
	vettingService driving.VettingService
	historyService driving.HistoryService
	settings       *config.Settings
	closeServices  func() error
)

// Global flags.
var (
	verbose   bool
	logJSON   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "vetta",
	Short: "Gather business vetting information about a company",
	Long: `vetta queries several independent data sources about a company at once
(business register, company profile, website traffic, web search and a
credit risk portal) and combines whatever they return into one plain-text
dossier. A source that fails or lacks input never stops the others.

Configuration lives in ~/.vetta/config.toml; see 'vetta config show'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default $VETTA_HOME or ~/.vetta)")
}

// SetWiring sets how commands obtain their services.
func SetWiring(w Wiring) {
	wiring = w
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("Failed to release resources: %v", cerr)
		}
	}
	logger.Sync()
	if err == nil {
		return 0
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintln(os.Stderr, "Hint:", hint)
	}
	if errors.Is(err, domain.ErrInvalidRequest) {
		return exitInvalid
	}
	return exitError
}

// prepare configures logging and builds whatever the command needs.
func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetJSON(logJSON)

	switch cmd.Annotations[annotationNeeds] {
	case needsConfig:
		return ensureConfig()
	case needsServices:
		if err := ensureConfig(); err != nil {
			return err
		}
		return ensureServices(cmd.Context())
	default:
		return nil
	}
}

func ensureConfig() error {
	if configStore != nil {
		return nil
	}
	if wiring.OpenConfig == nil {
		return errors.New("configuration not available")
	}
	store, err := wiring.OpenConfig(configDir)
	if err != nil {
		return errors.Wrap(err, "open configuration")
	}
	configStore = store
	return nil
}

func ensureServices(ctx context.Context) error {
	if vettingService != nil {
		return nil
	}
	if wiring.Build == nil {
		return errors.New("vetting service not configured")
	}
	svc, err := wiring.Build(ctx, configStore)
	if err != nil {
		return err
	}
	useServices(svc)
	return nil
}

func useServices(svc *Services) {
	vettingService = svc.Vetting
	historyService = svc.History
	settings = svc.Settings
	closeServices = svc.Close
}
