// Package config turns raw configuration values into typed Settings.
// Settings are built once per run (or per reload) and passed to each
// adapter's constructor; adapters never read the environment themselves.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyPipelineDeadline  = "pipeline.deadline"
	KeySourcesExclude    = "sources.exclude"
	KeyHTTPTimeout       = "http.timeout"
	KeyHTTPRate          = "http.rate"
	KeyApifyToken        = "apify.token"
	KeyApifyPostsLimit   = "apify.posts_limit"
	KeyWebSearchProvider = "websearch.provider"
	KeyWebSearchRegion   = "websearch.region"
	KeyWebSearchMax      = "websearch.max_results"
	KeyTavilyAPIKey      = "tavily.api_key"
	KeyGoogleAPIKey      = "google.api_key"
	KeyGoogleCSEID       = "google.cse_id"
	KeyRiskTimeout       = "risk_report.timeout"
	KeyRiskEmail         = "risk_report.email"
	KeyRiskPassword      = "risk_report.password"
	KeyRiskBaseURL       = "risk_report.base_url"
	KeyLLMProvider       = "llm.provider"
	KeyLLMModel          = "llm.model"
	KeyLLMAPIKey         = "llm.api_key"
	KeyLLMBaseURL        = "llm.base_url"
	KeyOpenAIAPIKey      = "openai.api_key"
	KeyAnthropicAPIKey   = "anthropic.api_key"
)

// Defaults.
const (
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultHTTPRate          = 2.0
	DefaultRiskReportTimeout = 5 * time.Minute
	DefaultPostsLimit        = 10
	DefaultRegion            = "UK"
	DefaultMaxResults        = 10
)

// Web search providers.
const (
	ProviderTavily = "tavily"
	ProviderGoogle = "google"
)

// LLM providers.
const (
	LLMOpenAI    = "openai"
	LLMAnthropic = "anthropic"
	LLMOllama    = "ollama"
)

// Key describes one configuration key.
type Key struct {
	Name        string
	Description string
	Default     string
	Secret      bool
}

// Keys lists every key vetta reads, in display order.
var Keys = []Key{
	{Name: KeyPipelineDeadline, Description: "Overall deadline for a vetting run (0 = none)", Default: "0"},
	{Name: KeySourcesExclude, Description: "Comma-separated sources to skip"},
	{Name: KeyHTTPTimeout, Description: "Per-request HTTP timeout", Default: DefaultHTTPTimeout.String()},
	{Name: KeyHTTPRate, Description: "Requests per second per source", Default: "2"},
	{Name: KeyApifyToken, Description: "Apify API token", Secret: true},
	{Name: KeyApifyPostsLimit, Description: "Profile posts to fetch", Default: strconv.Itoa(DefaultPostsLimit)},
	{Name: KeyWebSearchProvider, Description: "Web search provider (tavily or google)"},
	{Name: KeyWebSearchRegion, Description: "Region added to web search queries", Default: DefaultRegion},
	{Name: KeyWebSearchMax, Description: "Results per web search query", Default: strconv.Itoa(DefaultMaxResults)},
	{Name: KeyTavilyAPIKey, Description: "Tavily API key", Secret: true},
	{Name: KeyGoogleAPIKey, Description: "Google API key", Secret: true},
	{Name: KeyGoogleCSEID, Description: "Google Programmable Search engine ID"},
	{Name: KeyRiskTimeout, Description: "Hard timeout for the risk report worker", Default: DefaultRiskReportTimeout.String()},
	{Name: KeyRiskEmail, Description: "Risk portal login email"},
	{Name: KeyRiskPassword, Description: "Risk portal password", Secret: true},
	{Name: KeyRiskBaseURL, Description: "Risk portal application URL"},
	{Name: KeyLLMProvider, Description: "Report writer (openai, anthropic or ollama)"},
	{Name: KeyLLMModel, Description: "Report writer model"},
	{Name: KeyLLMAPIKey, Description: "Report writer API key (overrides the provider key)", Secret: true},
	{Name: KeyLLMBaseURL, Description: "Report writer API base URL"},
	{Name: KeyOpenAIAPIKey, Description: "OpenAI API key", Secret: true},
	{Name: KeyAnthropicAPIKey, Description: "Anthropic API key", Secret: true},
}

// LookupKey returns the description of name.
func LookupKey(name string) (Key, bool) {
	for _, k := range Keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// Settings is the typed configuration for one run.
type Settings struct {
	Pipeline   PipelineSettings
	HTTP       HTTPSettings
	Apify      ApifySettings
	WebSearch  WebSearchSettings
	RiskReport RiskReportSettings
	LLM        LLMSettings
}

// PipelineSettings configures the orchestrator.
type PipelineSettings struct {
	// Deadline bounds a whole run. Zero means none.
	Deadline time.Duration
	Exclude  []domain.SourceKey
}

// HTTPSettings configures every HTTP-backed source.
type HTTPSettings struct {
	Timeout time.Duration
	Rate    float64
}

// ApifySettings configures the profile and traffic sources.
type ApifySettings struct {
	Token      string
	PostsLimit int
}

// WebSearchSettings configures the web search source.
type WebSearchSettings struct {
	Provider     string
	Region       string
	MaxResults   int
	TavilyAPIKey string
	GoogleAPIKey string
	GoogleCSEID  string
}

// RiskReportSettings configures the isolated risk report source.
type RiskReportSettings struct {
	Timeout  time.Duration
	Email    string
	Password string
	BaseURL  string
}

// LLMSettings configures the report writer.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// IsConfigured reports whether a report writer can be created.
func (s LLMSettings) IsConfigured() bool {
	switch s.Provider {
	case LLMOllama:
		return true
	case LLMOpenAI, LLMAnthropic:
		return s.APIKey != ""
	default:
		return false
	}
}

// Load builds Settings from store, applying defaults. Malformed values are errors.
func Load(store driven.ConfigStore) (*Settings, error) {
	var problems []string
	record := func(err error) {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}

	s := &Settings{}

	var err error
	s.Pipeline.Deadline, err = duration(store, KeyPipelineDeadline, 0)
	record(err)
	for _, name := range store.GetStringSlice(KeySourcesExclude) {
		key, err := domain.ParseSourceKey(name)
		if err != nil {
			record(errors.Wrap(err, KeySourcesExclude))
			continue
		}
		s.Pipeline.Exclude = append(s.Pipeline.Exclude, key)
	}

	s.HTTP.Timeout, err = duration(store, KeyHTTPTimeout, DefaultHTTPTimeout)
	record(err)
	s.HTTP.Rate, err = number(store, KeyHTTPRate, DefaultHTTPRate)
	record(err)

	s.Apify.Token = str(store, KeyApifyToken)
	s.Apify.PostsLimit = positive(store, KeyApifyPostsLimit, DefaultPostsLimit)

	s.WebSearch = WebSearchSettings{
		Provider:     strings.ToLower(str(store, KeyWebSearchProvider)),
		Region:       DefaultRegion,
		MaxResults:   positive(store, KeyWebSearchMax, DefaultMaxResults),
		TavilyAPIKey: str(store, KeyTavilyAPIKey),
		GoogleAPIKey: str(store, KeyGoogleAPIKey),
		GoogleCSEID:  str(store, KeyGoogleCSEID),
	}
	if _, ok := store.Get(KeyWebSearchRegion); ok {
		s.WebSearch.Region = str(store, KeyWebSearchRegion)
	}
	switch s.WebSearch.Provider {
	case "":
		s.WebSearch.Provider = ProviderTavily
		if s.WebSearch.TavilyAPIKey == "" && s.WebSearch.GoogleAPIKey != "" {
			s.WebSearch.Provider = ProviderGoogle
		}
	case ProviderTavily, ProviderGoogle:
	default:
		record(errors.Newf("%s: unknown provider %q (want %s or %s)",
			KeyWebSearchProvider, s.WebSearch.Provider, ProviderTavily, ProviderGoogle))
	}

	s.RiskReport.Timeout, err = duration(store, KeyRiskTimeout, DefaultRiskReportTimeout)
	record(err)
	if s.RiskReport.Timeout <= 0 {
		s.RiskReport.Timeout = DefaultRiskReportTimeout
	}
	s.RiskReport.Email = str(store, KeyRiskEmail)
	s.RiskReport.Password = str(store, KeyRiskPassword)
	s.RiskReport.BaseURL = str(store, KeyRiskBaseURL)

	s.LLM, err = loadLLM(store)
	record(err)

	if len(problems) > 0 {
		err := errors.Newf("invalid configuration: %s", strings.Join(problems, "; "))
		return nil, errors.WithHint(err,
			"fix the value with 'vetta config set <key> <value>' or edit "+store.Path())
	}
	return s, nil
}

func loadLLM(store driven.ConfigStore) (LLMSettings, error) {
	llm := LLMSettings{
		Provider: strings.ToLower(str(store, KeyLLMProvider)),
		Model:    str(store, KeyLLMModel),
		BaseURL:  str(store, KeyLLMBaseURL),
	}
	openaiKey, anthropicKey := str(store, KeyOpenAIAPIKey), str(store, KeyAnthropicAPIKey)

	if llm.Provider == "" {
		switch {
		case openaiKey != "":
			llm.Provider = LLMOpenAI
		case anthropicKey != "":
			llm.Provider = LLMAnthropic
		}
	}

	switch llm.Provider {
	case "", LLMOllama:
	case LLMOpenAI:
		llm.APIKey = openaiKey
	case LLMAnthropic:
		llm.APIKey = anthropicKey
	default:
		return llm, errors.Newf("%s: unknown provider %q (want %s, %s or %s)",
			KeyLLMProvider, llm.Provider, LLMOpenAI, LLMAnthropic, LLMOllama)
	}
	if key := str(store, KeyLLMAPIKey); key != "" {
		llm.APIKey = key
	}
	return llm, nil
}

func str(store driven.ConfigStore, key string) string {
	v, ok := store.Get(key)
	if !ok {
		return ""
	}
	if t, ok := v.(string); ok {
		return strings.TrimSpace(t)
	}
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// duration reads a Go duration string. Bare numbers are seconds.
func duration(store driven.ConfigStore, key string, def time.Duration) (time.Duration, error) {
	v, ok := store.Get(key)
	if !ok {
		return def, nil
	}
	switch t := v.(type) {
	case time.Duration:
		return t, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		d, err := time.ParseDuration(s)
		if secs, perr := strconv.ParseFloat(s, 64); perr == nil {
			d, err = time.Duration(secs*float64(time.Second)), nil
		}
		if err != nil {
			return def, errors.Newf("%s: invalid duration %q", key, s)
		}
		if d < 0 {
			return def, errors.Newf("%s: duration must not be negative", key)
		}
		return d, nil
	default:
		return def, errors.Newf("%s: invalid duration %v", key, v)
	}
}

func number(store driven.ConfigStore, key string, def float64) (float64, error) {
	v, ok := store.Get(key)
	if !ok {
		return def, nil
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return def, errors.Newf("%s: invalid number %q", key, t)
		}
		return f, nil
	default:
		return def, errors.Newf("%s: invalid number %v", key, v)
	}
}

func positive(store driven.ConfigStore, key string, def int) int {
	if n := store.GetInt(key); n > 0 {
		return n
	}
	return def
}
