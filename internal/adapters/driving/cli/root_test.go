package cli

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vetta/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "vetta", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "log-json", "config-dir"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestExecute_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", want: 0},
		{name: "invalid request", err: errors.Mark(errors.New("company name is required"), domain.ErrInvalidRequest), want: exitInvalid},
		{name: "other failure", err: errors.New("boom"), want: exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, cleanup := setupTestServices()
			defer cleanup()
			env.vetting.err = tt.err

			rootCmd.SetArgs([]string{"vet", "Acme"})
			assert.Equal(t, tt.want, Execute(context.Background()))
		})
	}
}

func TestExecute_ClosesServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	closed := false
	closeServices = func() error {
		closed = true
		return nil
	}

	rootCmd.SetArgs([]string{"version"})
	assert.Equal(t, 0, Execute(context.Background()))
	assert.True(t, closed)
}

func TestPrepare_LoggingOnlyCommandsSkipWiring(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	configStore = nil
	vettingService = nil

	opened := 0
	wiring = Wiring{
		OpenConfig: func(string) (driven.ConfigStore, error) {
			opened++
			return memory.NewConfigStore(), nil
		},
		Build: func(context.Context, driven.ConfigStore) (*Services, error) {
			t.Fatal("version must not build services")
			return nil, nil
		},
	}

	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Zero(t, opened)
}

func TestPrepare_ConfigCommandsSkipServices(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	configStore = nil
	vettingService = nil

	var gotDir string
	wiring = Wiring{
		OpenConfig: func(dir string) (driven.ConfigStore, error) {
			gotDir = dir
			return env.store, nil
		},
		Build: func(context.Context, driven.ConfigStore) (*Services, error) {
			return nil, errors.New("invalid configuration: http.rate: invalid number \"fast\"")
		},
	}

	rootCmd.SetArgs([]string{"--config-dir", "/tmp/vetta-test", "config", "path"})
	defer func() { configDir = "" }()
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "/tmp/vetta-test", gotDir)
	assert.Equal(t, ":memory:\n", env.out.String())
}

func TestPrepare_BuildsServicesOnDemand(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	vettingService = nil
	historyService = nil

	built := 0
	wiring = Wiring{
		Build: func(_ context.Context, store driven.ConfigStore) (*Services, error) {
			built++
			assert.Same(t, env.store, store)
			return &Services{Vetting: env.vetting, History: env.history}, nil
		},
	}

	rootCmd.SetArgs([]string{"sources"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, 1, built)
	assert.Same(t, env.vetting, vettingService)
}

func TestPrepare_BuildErrorIsReturned(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	vettingService = nil

	wiring = Wiring{
		Build: func(context.Context, driven.ConfigStore) (*Services, error) {
			return nil, errors.WithHint(errors.New("invalid configuration"), "fix it")
		},
	}

	rootCmd.SetArgs([]string{"vet", "Acme"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Equal(t, []string{"fix it"}, errors.GetAllHints(err))
}
