package apify

import (
	"context"
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
)

// Ensure the sources implement the interface.
var (
	_ driven.SourceAdapter = (*ProfileDetails)(nil)
	_ driven.SourceAdapter = (*ProfilePosts)(nil)
	_ driven.SourceAdapter = (*TrafficStats)(nil)
)

// ProfileDetails fetches company details from the professional network profile.
type ProfileDetails struct {
	client *Client
}

// NewProfileDetails creates the profile details source.
func NewProfileDetails(client *Client) *ProfileDetails {
	return &ProfileDetails{client: client}
}

// Key returns domain.SourceProfileDetails.
func (s *ProfileDetails) Key() domain.SourceKey { return domain.SourceProfileDetails }

// CompanyDetails is the cleaned profile payload.
type CompanyDetails struct {
	Name              any `json:"name"`
	Description       any `json:"description"`
	Headquarters      any `json:"headquarters"`
	Slogan            any `json:"slogan"`
	Industry          any `json:"industry"`
	Founded           any `json:"founded"`
	NumberOfEmployees any `json:"number_of_employees"`
	FollowersCount    any `json:"followers_count"`
}

// Fetch runs the profile details actor.
func (s *ProfileDetails) Fetch(ctx context.Context, req domain.FetchRequest) (any, error) {
	if req.ProfileURL == "" {
		return nil, fmt.Errorf("%w: profile url not provided", domain.ErrMissingPrerequisite)
	}
	items, err := s.client.RunActor(ctx, ActorProfileDetails, map[string]any{"url": []string{req.ProfileURL}})
	if err != nil {
		return nil, errors.Wrap(err, "fetch profile details")
	}
	raw := first(items)
	return CompanyDetails{
		Name:              orNA(raw, "name"),
		Description:       orNA(raw, "description"),
		Headquarters:      orNA(raw, "Headquarters"),
		Slogan:            orNA(raw, "slogan"),
		Industry:          orNA(raw, "Industry"),
		Founded:           orNA(raw, "Founded"),
		NumberOfEmployees: orNA(raw, "numberOfEmployees"),
		FollowersCount:    orNA(raw, "FollowersCount"),
	}, nil
}

// ProfilePosts fetches recent posts from the professional network profile.
type ProfilePosts struct {
	client *Client
	limit  int
}

// NewProfilePosts creates the profile posts source. A non-positive limit uses DefaultPostsLimit.
func NewProfilePosts(client *Client, limit int) *ProfilePosts {
	if limit <= 0 {
		limit = DefaultPostsLimit
	}
	return &ProfilePosts{client: client, limit: limit}
}

// Key returns domain.SourceProfilePosts.
func (s *ProfilePosts) Key() domain.SourceKey { return domain.SourceProfilePosts }

// Post is one cleaned profile post.
type Post struct {
	Text           any    `json:"text"`
	PostedDate     string `json:"posted_date"`
	TotalReactions any    `json:"total_reactions"`
}

// Fetch runs the profile posts actor. No posts is an empty, successful result.
func (s *ProfilePosts) Fetch(ctx context.Context, req domain.FetchRequest) (any, error) {
	if req.ProfileURL == "" {
		return nil, fmt.Errorf("%w: profile url not provided", domain.ErrMissingPrerequisite)
	}
	items, err := s.client.RunActor(ctx, ActorProfilePosts, map[string]any{
		"company_name": req.ProfileURL,
		"page_number":  1,
		"limit":        s.limit,
		"sort":         "recent",
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch profile posts")
	}

	posts := make([]Post, 0, len(items))
	for _, raw := range items {
		relative := notAvailable
		if v, ok := nested(raw, "posted_at")["relative"].(string); ok && v != "" {
			relative = v
		}
		reactions, ok := nested(raw, "stats")["total_reactions"]
		if !ok || reactions == nil {
			reactions = 0
		}
		posts = append(posts, Post{
			Text:           orNA(raw, "text"),
			PostedDate:     relative + " ago",
			TotalReactions: reactions,
		})
	}
	return posts, nil
}

// TrafficStats fetches website traffic estimates for the company domain.
type TrafficStats struct {
	client *Client
}

// NewTrafficStats creates the traffic statistics source.
func NewTrafficStats(client *Client) *TrafficStats {
	return &TrafficStats{client: client}
}

// Key returns domain.SourceTrafficStats.
func (s *TrafficStats) Key() domain.SourceKey { return domain.SourceTrafficStats }

// Traffic is the cleaned traffic payload.
type Traffic struct {
	EstimatedMonthlyVisits map[string]any  `json:"estimated_monthly_visits"`
	Visits                 any             `json:"visits"`
	TimeOnSite             any             `json:"time_on_site"`
	TopTrafficSources      []TrafficSource `json:"top_traffic_sources"`
	CountryCode            any             `json:"country_code"`
	CountryRank            any             `json:"country_rank"`
}

// TrafficSource is one channel's share of visits.
type TrafficSource struct {
	Source string  `json:"source"`
	Share  float64 `json:"share"`
}

// topSources is how many traffic channels are kept.
const topSources = 2

// Fetch runs the traffic actor.
func (s *TrafficStats) Fetch(ctx context.Context, req domain.FetchRequest) (any, error) {
	if req.Domain == "" {
		return nil, fmt.Errorf("%w: domain not provided", domain.ErrMissingPrerequisite)
	}
	items, err := s.client.RunActor(ctx, ActorTrafficStats, map[string]any{"domains": []string{req.Domain}})
	if err != nil {
		return nil, errors.Wrap(err, "fetch traffic stats")
	}
	raw := first(items)
	rank := nested(raw, "countryRank")

	return Traffic{
		EstimatedMonthlyVisits: nested(raw, "estimatedMonthlyVisits"),
		Visits:                 orNA(raw, "visits"),
		TimeOnSite:             orNA(raw, "timeOnSite"),
		TopTrafficSources:      topTrafficSources(nested(raw, "trafficSources"), topSources),
		CountryCode:            orNA(rank, "CountryCode"),
		CountryRank:            orNA(rank, "Rank"),
	}, nil
}

// topTrafficSources returns the n largest numeric shares, largest first.
// Ties are broken by name so output is stable.
func topTrafficSources(raw map[string]any, n int) []TrafficSource {
	sources := make([]TrafficSource, 0, len(raw))
	for name, v := range raw {
		share, ok := v.(float64)
		if !ok {
			continue
		}
		sources = append(sources, TrafficSource{Source: name, Share: share})
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Share == sources[j].Share {
			return sources[i].Source < sources[j].Source
		}
		return sources[i].Share > sources[j].Share
	})
	if len(sources) > n {
		sources = sources[:n]
	}
	return sources
}
