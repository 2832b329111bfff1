package domain

import (
	"fmt"
	"slices"
	"strings"
)

// SourceKey identifies one configured data source.
// The set of keys is static per deployment; it is never discovered at runtime.
type SourceKey string

// Built-in source keys, listed in declaration order.
const (
	SourceProfileDetails SourceKey = "profile_details"
	SourceProfilePosts   SourceKey = "profile_posts"
	SourceTrafficStats   SourceKey = "traffic_stats"
	SourceRegistryLookup SourceKey = "registry_lookup"
	SourceWebSearch      SourceKey = "web_search"
	SourceRiskReport     SourceKey = "risk_report"
)

// SourceSpec describes a built-in source for listings and help output.
type SourceSpec struct {
	Key         SourceKey
	Description string
	// Requires names the FetchRequest fields the source cannot run without.
	Requires []string
	// Isolated is true when the source runs in a separate worker process.
	Isolated bool
}

// catalogue is the declaration order used by every formatted report.
var catalogue = []SourceSpec{
	{
		Key:         SourceProfileDetails,
		Description: "Company profile details from the professional network page",
		Requires:    []string{"profile_url"},
	},
	{
		Key:         SourceProfilePosts,
		Description: "Recent posts from the company profile page",
		Requires:    []string{"profile_url"},
	},
	{
		Key:         SourceTrafficStats,
		Description: "Website traffic estimates for the company domain",
		Requires:    []string{"domain"},
	},
	{
		Key:         SourceRegistryLookup,
		Description: "Australian Business Register entity details",
		Requires:    []string{"company_name or abn"},
	},
	{
		Key:         SourceWebSearch,
		Description: "General, news and review web search results",
		Requires:    []string{"company_name"},
	},
	{
		Key:         SourceRiskReport,
		Description: "Credit risk portal company profile",
		Requires:    []string{"abn"},
		Isolated:    true,
	},
}

// SourceKeys returns the built-in keys in declaration order.
func SourceKeys() []SourceKey {
	keys := make([]SourceKey, len(catalogue))
	for i, spec := range catalogue {
		keys[i] = spec.Key
	}
	return keys
}

// SourceCatalogue returns a copy of the built-in source descriptions.
func SourceCatalogue() []SourceSpec {
	out := make([]SourceSpec, len(catalogue))
	for i, spec := range catalogue {
		spec.Requires = slices.Clone(spec.Requires)
		out[i] = spec
	}
	return out
}

// ParseSourceKey converts a string into a built-in SourceKey.
func ParseSourceKey(s string) (SourceKey, error) {
	key := SourceKey(strings.TrimSpace(strings.ToLower(s)))
	for _, spec := range catalogue {
		if spec.Key == key {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, s)
}

// Title returns the section title for the key, e.g. "REGISTRY LOOKUP".
func (k SourceKey) Title() string {
	return strings.ToUpper(strings.ReplaceAll(string(k), "_", " "))
}

// String implements fmt.Stringer.
func (k SourceKey) String() string {
	return string(k)
}
