// Package sources contains the concrete SourceAdapter implementations.
//
// Each subpackage talks to one external service:
//   - registry: Australian Business Register lookup (HTML)
//   - apify: profile details, profile posts and traffic statistics via Apify actors
//   - websearch: general, news and review searches via Tavily or Google Custom Search
//   - riskreport: credit risk portal profile (login, page scrape, optional LLM clean-up)
//
// httpx provides the shared rate-limited HTTP client.
//
// Adapters receive their configuration at construction time and never read
// the environment while fetching. A request missing a field an adapter
// needs yields an error wrapping domain.ErrMissingPrerequisite; the call
// is not attempted.
package sources
