package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceKeys_DeclarationOrder(t *testing.T) {
	assert.Equal(t, []SourceKey{
		SourceProfileDetails,
		SourceProfilePosts,
		SourceTrafficStats,
		SourceRegistryLookup,
		SourceWebSearch,
		SourceRiskReport,
	}, SourceKeys())
}

func TestSourceKey_Title(t *testing.T) {
	assert.Equal(t, "REGISTRY LOOKUP", SourceRegistryLookup.Title())
	assert.Equal(t, "WEB SEARCH", SourceWebSearch.Title())
	assert.Equal(t, "SOURCE A", SourceKey("source_a").Title())
}

func TestParseSourceKey(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		key, err := ParseSourceKey(" Web_Search ")
		require.NoError(t, err)
		assert.Equal(t, SourceWebSearch, key)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseSourceKey("blog_posts")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedSource))
	})
}

func TestSourceCatalogue_IsCopy(t *testing.T) {
	specs := SourceCatalogue()
	require.Len(t, specs, len(SourceKeys()))
	specs[0].Requires[0] = "mutated"

	assert.Equal(t, "profile_url", SourceCatalogue()[0].Requires[0])
}

func TestSourceCatalogue_OnlyRiskReportIsolated(t *testing.T) {
	for _, spec := range SourceCatalogue() {
		assert.Equal(t, spec.Key == SourceRiskReport, spec.Isolated, spec.Key)
	}
}
