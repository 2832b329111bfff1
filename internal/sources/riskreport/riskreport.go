// Package riskreport implements the credit risk report source. It logs in
// to the credit risk portal with a cookie session, scrapes the company
// profile page and optionally has an LLM tidy the scraped text.
//
// The source is slow and depends on a third-party login flow, so it only
// runs inside the isolated worker process.
package riskreport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/logger"
	"github.com/custodia-labs/vetta/internal/sources/htmltext"
	"github.com/custodia-labs/vetta/internal/sources/httpx"
)

// Portal defaults.
const (
	DefaultLoginURL = "https://login.creditorwatch.com.au/"
	DefaultBaseURL  = "https://app.creditorwatch.com.au"
	profilePath     = "/reporting/organisation/profile/"
	reportingPath   = "/reporting"
)

// Clean-up tuning.
const (
	cleanMaxTokens   = 6000
	cleanTemperature = 0.1
	maxCleanChars    = 50000
)

// defaultCleanPrompt is used when no PromptStore is configured.
const defaultCleanPrompt = `You are processing a company profile exported from a credit risk portal.

Rewrite the extracted text below as a clean plain-text document that keeps every detail:
risk scores, payment ratings, enquiries, risk data, registry data, directors, shareholders and timeline events.
Remove navigation labels and button text, remove duplicates, and use "=== Section Name ===" headers.
Flag deregistration notices, defaults, credit enquiries, adverse risk data and status changes.
Output only the cleaned text.

EXTRACTED TEXT:
%s`

// Config configures the risk report source.
type Config struct {
	Email    string
	Password string
	// LoginURL overrides DefaultLoginURL.
	LoginURL string
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// HTTP carries timeout and pacing settings. Its Jar is replaced per run.
	HTTP httpx.Config
}

// Profile is the structured payload, used when no cleaned text is available.
type Profile struct {
	ABN          string    `json:"abn"`
	CompanyName  string    `json:"company_name,omitempty"`
	PageURL      string    `json:"page_url"`
	ExtractedAt  time.Time `json:"extraction_timestamp"`
	CharCount    int       `json:"char_count"`
	WordCount    int       `json:"word_count"`
	CleanupError string    `json:"cleanup_error,omitempty"`
	// FullText is the raw page text. It is too noisy to report.
	FullText string `json:"-"`
}

// Ensure Source implements the interface.
var _ driven.SourceAdapter = (*Source)(nil)

// Source fetches the credit risk profile for an ABN.
type Source struct {
	cfg     Config
	llm     driven.LLMService
	prompts driven.PromptStore
	now     func() time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithCleaner has llm rewrite the scraped text. prompts may be nil.
func WithCleaner(llm driven.LLMService, prompts driven.PromptStore) Option {
	return func(s *Source) {
		s.llm = llm
		s.prompts = prompts
	}
}

// WithClock overrides the extraction timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// New creates the risk report source.
func New(cfg Config, opts ...Option) *Source {
	if cfg.LoginURL == "" {
		cfg.LoginURL = DefaultLoginURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	s := &Source{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns domain.SourceRiskReport.
func (s *Source) Key() domain.SourceKey { return domain.SourceRiskReport }

// Precheck validates the ABN before a worker is started.
func Precheck(req domain.FetchRequest) error {
	_, err := domain.CleanABN(req.RegistryNumber)
	return err
}

// Fetch logs in, scrapes the profile page and returns either the cleaned
// text as a domain.Narrative or the structured Profile.
func (s *Source) Fetch(ctx context.Context, req domain.FetchRequest) (any, error) {
	abn, err := domain.CleanABN(req.RegistryNumber)
	if err != nil {
		return nil, err
	}
	if s.cfg.Email == "" || s.cfg.Password == "" {
		return nil, errors.WithHint(
			errors.Wrap(domain.ErrAuthRequired, "risk portal credentials not configured"),
			"run 'vetta config login' or set CW_LOGIN_EMAIL and CW_LOGIN_PASSWORD",
		)
	}

	log := logger.FromContext(ctx).With(logger.FieldSource, s.Key())
	sess, err := s.newSession()
	if err != nil {
		return nil, err
	}

	log.Debugw("logging in to risk portal")
	if err := sess.login(ctx, s.cfg.LoginURL, s.cfg.Email, s.cfg.Password); err != nil {
		return nil, errors.Wrap(err, "risk portal login")
	}

	profileURL := s.cfg.BaseURL + profilePath + abn
	log.Debugw("fetching risk profile", "url", profileURL)
	doc, final, err := sess.get(ctx, profileURL)
	if err != nil {
		return nil, errors.Wrap(err, "fetch risk profile")
	}
	if !strings.HasPrefix(final.Path, reportingPath) || findForm(doc, final) != nil {
		return nil, errors.Mark(errors.Newf("redirected to %s instead of the profile page", final.Redacted()), domain.ErrAuthInvalid)
	}

	text := htmltext.PageText(doc)
	profile := &Profile{
		ABN:         abn,
		CompanyName: companyName(htmltext.Title(doc)),
		PageURL:     final.String(),
		ExtractedAt: s.now().UTC(),
		CharCount:   len(text),
		WordCount:   len(strings.Fields(text)),
		FullText:    text,
	}

	if s.llm == nil || text == "" {
		return profile, nil
	}
	cleaned, err := s.clean(ctx, profile)
	if err != nil {
		log.Warnw("risk report clean-up failed", logger.FieldError, err)
		profile.CleanupError = err.Error()
		return profile, nil
	}
	return domain.Narrative(cleaned), nil
}

// clean asks the LLM to rewrite the scraped profile text.
func (s *Source) clean(ctx context.Context, p *Profile) (string, error) {
	tmpl := defaultCleanPrompt
	if s.prompts != nil {
		if loaded, err := s.prompts.Load(driven.PromptRiskReportClean); err == nil {
			tmpl = loaded
		}
	}

	text := p.FullText
	if len(text) > maxCleanChars {
		text = text[:maxCleanChars]
	}
	name := p.CompanyName
	if name == "" {
		name = "Unknown"
	}
	input := fmt.Sprintf("Company: %s (ABN: %s)\n\n%s", name, p.ABN, text)

	out, err := s.llm.Generate(ctx, fmt.Sprintf(tmpl, input), driven.GenerateOptions{
		MaxTokens:   cleanMaxTokens,
		Temperature: cleanTemperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "clean risk report")
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("clean risk report: empty response")
	}
	return out, nil
}

// companyName takes the part of a page title before the first "|".
func companyName(title string) string {
	name, _, found := strings.Cut(title, "|")
	if !found {
		return ""
	}
	return strings.TrimSpace(name)
}

// session is one cookie-backed browsing session.
type session struct {
	http *httpx.Client
}

func (s *Source) newSession() (*session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}
	cfg := s.cfg.HTTP
	cfg.Jar = jar
	return &session{http: httpx.New(cfg)}, nil
}

// login walks the identifier-first flow: the email form, then the password
// form. A single form holding both fields is submitted once.
func (sess *session) login(ctx context.Context, loginURL, email, password string) error {
	doc, page, err := sess.get(ctx, loginURL)
	if err != nil {
		return err
	}
	for step := 0; step < 2; step++ {
		f := findForm(doc, page)
		if f == nil {
			if step == 0 {
				return errors.Newf("no login form at %s", page.Redacted())
			}
			return nil
		}
		if step == 1 && f.pass == "" {
			return errors.Mark(errors.New("email was not accepted"), domain.ErrAuthInvalid)
		}
		doc, page, err = sess.post(ctx, f.action, f.fill(email, password))
		if err != nil {
			return err
		}
		if f.pass != "" {
			break
		}
	}
	if f := findForm(doc, page); f != nil && f.pass != "" {
		return errors.Mark(errors.New("credentials rejected"), domain.ErrAuthInvalid)
	}
	return nil
}

func (sess *session) get(ctx context.Context, rawURL string) (*html.Node, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create request")
	}
	return sess.do(req)
}

func (sess *session) post(ctx context.Context, action *url.URL, values url.Values) (*html.Node, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action.String(), strings.NewReader(values.Encode()))
	if err != nil {
		return nil, nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return sess.do(req)
}

// do sends req and parses the page it lands on after redirects.
func (sess *session) do(req *http.Request) (*html.Node, *url.URL, error) {
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := sess.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	doc, err := htmltext.Parse(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, nil, err
	}
	return doc, resp.Request.URL, nil
}
