package cli

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vetta/internal/adapters/driving/mcp"
	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
	"github.com/custodia-labs/vetta/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead.

The configuration file is watched while the server runs; edits apply to
the next vet_company call.

Examples:
  # Stdio mode (default, for Claude Desktop)
  vetta mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  vetta mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "vetta": {
        "command": "/path/to/vetta",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Annotations: map[string]string{annotationNeeds: needsServices},
	RunE:        runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return errors.Wrap(err, "getting port flag")
	}

	live := newLiveServices(&Services{Vetting: vettingService, History: historyService})

	ports := &mcp.Ports{Vetting: live}
	if historyService != nil {
		ports.History = live
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	return serveWithReload(cmd.Context(), live, func(ctx context.Context) error {
		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})
}

// serveWithReload runs serve while watching the configuration. On return the
// watcher has stopped before the replaced services are closed, so no reload
// can install services that outlive the server.
func serveWithReload(parent context.Context, live *liveServices, serve func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(parent)
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		watchConfig(ctx, live)
	}()
	defer func() {
		cancel()
		<-watched
		live.closeRetired()
	}()

	return serve(ctx)
}

// watchConfig rebuilds the services whenever the configuration file changes.
func watchConfig(ctx context.Context, live *liveServices) {
	if configStore == nil || wiring.Build == nil {
		return
	}
	err := configStore.Watch(ctx, func() {
		svc, err := wiring.Build(ctx, configStore)
		if err != nil {
			logger.Warn("Configuration reload failed, keeping previous settings: %v", err)
			return
		}
		live.swap(svc)
		logger.Info("Configuration reloaded")
	})
	if err != nil {
		logger.Warn("Configuration watch stopped: %v", err)
	}
}

// liveServices forwards to the most recently built services.
type liveServices struct {
	initial *Services
	current atomic.Pointer[Services]

	mu      sync.Mutex
	retired []*Services
}

var (
	_ driving.VettingService = (*liveServices)(nil)
	_ driving.HistoryService = (*liveServices)(nil)
)

func newLiveServices(svc *Services) *liveServices {
	l := &liveServices{initial: svc}
	l.current.Store(svc)
	return l
}

// swap installs svc. The replaced services stay open until closeRetired,
// since a call may still be using them.
func (l *liveServices) swap(svc *Services) {
	old := l.current.Swap(svc)
	if old == nil {
		return
	}
	l.mu.Lock()
	l.retired = append(l.retired, old)
	l.mu.Unlock()
}

func (l *liveServices) closeRetired() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, svc := range l.retired {
		if svc.Close != nil {
			if err := svc.Close(); err != nil {
				logger.Warn("Failed to close replaced services: %v", err)
			}
		}
	}
	l.retired = nil
	// Execute closes the initial services.
	if cur := l.current.Load(); cur != l.initial && cur.Close != nil {
		if err := cur.Close(); err != nil {
			logger.Warn("Failed to close services: %v", err)
		}
	}
}

func (l *liveServices) Vet(ctx context.Context, req domain.FetchRequest, opts driving.VetOptions) (*driving.VetResult, error) {
	return l.current.Load().Vetting.Vet(ctx, req, opts)
}

func (l *liveServices) Sources() []domain.SourceKey {
	return l.current.Load().Vetting.Sources()
}

func (l *liveServices) List(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	h := l.current.Load().History
	if h == nil {
		return nil, nil
	}
	return h.List(ctx, limit)
}

func (l *liveServices) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	h := l.current.Load().History
	if h == nil {
		return nil, domain.ErrNotFound
	}
	return h.Get(ctx, id)
}
