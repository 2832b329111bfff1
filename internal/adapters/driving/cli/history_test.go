package cli

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

func sampleRecords() []*domain.RunRecord {
	started := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	return []*domain.RunRecord{
		{
			ID:          "run-2",
			CompanyName: "Beta Ltd",
			Request:     domain.FetchRequest{CompanyName: "Beta Ltd", Domain: "beta.example"},
			StartedAt:   started.Add(time.Hour),
			Duration:    2 * time.Second,
			Summary: domain.Summary{
				Success: 2, Total: 3, Failed: 1, Skipped: 3,
				Sources: []domain.SourceStatus{
					{Key: domain.SourceTrafficStats, State: domain.OutcomeSuccess},
					{Key: domain.SourceWebSearch, State: domain.OutcomeError, Message: "timed out"},
				},
			},
		},
		{
			ID:          "run-1",
			CompanyName: "Acme Pty Ltd",
			Request:     domain.FetchRequest{CompanyName: "Acme Pty Ltd", RegistryNumber: "51824753556"},
			StartedAt:   started,
			Duration:    1500 * time.Millisecond,
			Summary:     domain.Summary{Success: 1, Total: 1},
		},
	}
}

func TestHistoryCmd_HasLimitFlag(t *testing.T) {
	flag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "20", flag.DefValue)
}

func TestHistoryCmd_Empty(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetArgs([]string{"history"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "No vetting runs recorded yet.\n", env.out.String())
	assert.Equal(t, defaultHistoryLimit, env.history.gotLimit)
}

func TestHistoryCmd_ListsRuns(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	env.history.records = sampleRecords()

	rootCmd.SetArgs([]string{"history", "-n", "5"})
	require.NoError(t, rootCmd.Execute())

	out := env.out.String()
	assert.Equal(t, 5, env.history.gotLimit)
	assert.Contains(t, out, "RUN ID")
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "Beta Ltd")
	assert.Contains(t, out, "2/3")
	assert.Contains(t, out, "1.5s")
	assert.Less(t, strings.Index(out, "run-2"), strings.Index(out, "run-1"))
}

func TestHistoryCmd_JSON(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	env.history.records = sampleRecords()

	rootCmd.SetArgs([]string{"history", "--json"})
	require.NoError(t, rootCmd.Execute())

	var got []runJSON
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "run-2", got[0].ID)
	assert.Equal(t, int64(2000), got[0].DurationMS)
	assert.Equal(t, "beta.example", got[0].Request.Domain)
}

func TestHistoryCmd_ServiceError(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	env.history.err = errors.New("database is locked")

	rootCmd.SetArgs([]string{"history"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestHistoryShowCmd_PrintsRun(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	env.history.records = sampleRecords()

	rootCmd.SetArgs([]string{"history", "show", "run-2"})
	require.NoError(t, rootCmd.Execute())

	out := env.out.String()
	assert.Contains(t, out, "Run:      run-2")
	assert.Contains(t, out, "Domain:   beta.example")
	assert.NotContains(t, out, "ABN:")
	assert.Contains(t, out, "2/3 sources succeeded (1 failed, 3 skipped)")
	assert.Contains(t, out, "timed out")
}

func TestHistoryShowCmd_NotFound(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetArgs([]string{"history", "show", "missing"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Equal(t, "run missing not found", err.Error())
	assert.Equal(t, []string{"list runs with 'vetta history'"}, errors.GetAllHints(err))
}

func TestHistoryShowCmd_JSON(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	env.history.records = sampleRecords()

	rootCmd.SetArgs([]string{"history", "show", "--json", "run-1"})
	require.NoError(t, rootCmd.Execute())

	var got runJSON
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &got))
	assert.Equal(t, "Acme Pty Ltd", got.CompanyName)
	assert.Equal(t, "51824753556", got.Request.RegistryNumber)
}
