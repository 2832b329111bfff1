package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

func TestSourcesCmd_ListsCatalogue(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetArgs([]string{"sources"})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(env.out.String()), "\n")
	require.Len(t, lines, len(domain.SourceCatalogue())+1)
	assert.True(t, strings.HasPrefix(lines[0], "SOURCE"))

	byKey := map[string]string{}
	for _, line := range lines[1:] {
		byKey[strings.Fields(line)[0]] = line
	}
	assert.Contains(t, byKey["registry_lookup"], "enabled")
	assert.Contains(t, byKey["web_search"], "enabled")
	assert.Contains(t, byKey["traffic_stats"], "excluded")
	assert.Contains(t, byKey["traffic_stats"], "domain")
	assert.Contains(t, byKey["risk_report"], "excluded (isolated)")
}
