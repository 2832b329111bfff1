package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/vetta/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vetta/internal/config"
	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
)

type mockVettingService struct {
	result  *driving.VetResult
	err     error
	keys    []domain.SourceKey
	gotReq  domain.FetchRequest
	gotOpts driving.VetOptions
	calls   int
}

func (m *mockVettingService) Vet(
	_ context.Context,
	req domain.FetchRequest,
	opts driving.VetOptions,
) (*driving.VetResult, error) {
	m.calls++
	m.gotReq = req
	m.gotOpts = opts
	return m.result, m.err
}

func (m *mockVettingService) Sources() []domain.SourceKey {
	return m.keys
}

type mockHistoryService struct {
	records  []*domain.RunRecord
	err      error
	gotLimit int
}

func (m *mockHistoryService) List(_ context.Context, limit int) ([]*domain.RunRecord, error) {
	m.gotLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func (m *mockHistoryService) Get(_ context.Context, id string) (*domain.RunRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

// testEnv holds the fakes installed by setupTestServices.
type testEnv struct {
	vetting *mockVettingService
	history *mockHistoryService
	store   *memory.ConfigStore
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func sampleVetResult() *driving.VetResult {
	req := domain.FetchRequest{CompanyName: "Acme Pty Ltd", RegistryNumber: "51824753556"}
	res := domain.NewPipelineResult("run-1", req, []domain.SourceKey{
		domain.SourceRegistryLookup, domain.SourceWebSearch, domain.SourceRiskReport,
	})
	res.Outcomes[domain.SourceRegistryLookup] = domain.Success(map[string]any{"EntityName": "ACME PTY LTD"})
	res.Outcomes[domain.SourceWebSearch] = domain.Failed("rate limited")
	res.Outcomes[domain.SourceRiskReport] = domain.Skipped("no ABN")
	res.Duration = 1500 * time.Millisecond

	return &driving.VetResult{
		Result: res,
		Summary: domain.Summary{
			Success: 1, Total: 2, Failed: 1, Skipped: 1,
			Sources: []domain.SourceStatus{
				{Key: domain.SourceRegistryLookup, State: domain.OutcomeSuccess},
				{Key: domain.SourceWebSearch, State: domain.OutcomeError, Message: "rate limited"},
				{Key: domain.SourceRiskReport, State: domain.OutcomeSkipped, Message: "no ABN"},
			},
		},
		Dossier: "=== REGISTRY LOOKUP ===\nACME PTY LTD\n",
	}
}

// setupTestServices installs fakes for every global the commands read and
// returns a function restoring the previous state.
func setupTestServices() (*testEnv, func()) {
	env := &testEnv{
		vetting: &mockVettingService{
			result: sampleVetResult(),
			keys:   []domain.SourceKey{domain.SourceRegistryLookup, domain.SourceWebSearch},
		},
		history: &mockHistoryService{},
		store:   memory.NewConfigStore(),
		out:     new(bytes.Buffer),
		errOut:  new(bytes.Buffer),
	}

	origStore, origVetting, origHistory, origSettings, origClose :=
		configStore, vettingService, historyService, settings, closeServices
	origWiring := wiring

	configStore = env.store
	vettingService = env.vetting
	historyService = env.history
	settings = &config.Settings{}
	closeServices = nil

	rootCmd.SetOut(env.out)
	rootCmd.SetErr(env.errOut)

	return env, func() {
		configStore, vettingService, historyService, settings, closeServices =
			origStore, origVetting, origHistory, origSettings, origClose
		wiring = origWiring
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	}
}

func resetFlags() {
	vetFlags.profileURL = ""
	vetFlags.domain = ""
	vetFlags.abn = ""
	vetFlags.json = false
	vetFlags.report = false
	vetFlags.docs = nil
	vetFlags.deadline = 0
	historyFlags.limit = defaultHistoryLimit
	historyFlags.json = false
	configShowSecrets = false
	configLLMSkipCheck = false
	workerHandoff = ""
	clearChanged(rootCmd)
}

// clearChanged forgets which flags earlier tests set, so required-flag
// checks see a fresh command tree.
func clearChanged(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	for _, sub := range cmd.Commands() {
		clearChanged(sub)
	}
}
