// Package discovery finds companies with public ATS boards so the board
// fetcher has something to walk. Slugs come from web-search results plus a
// built-in seed list.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/XploY04/jobs.ai/internal/model"
)

// SearchClient performs one web search and returns result URLs. Any search
// backend with an API works; nil means seed-only discovery.
type SearchClient interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// boardURLPatterns maps an ATS platform to the URL shape of its hosted
// boards.
var boardURLPatterns = map[string]*regexp.Regexp{
	"greenhouse":      regexp.MustCompile(`boards\.greenhouse\.io/(?:embed/job_board\?for=)?([a-z0-9][a-z0-9_-]*)`),
	"lever":           regexp.MustCompile(`jobs\.lever\.co/([A-Za-z0-9][A-Za-z0-9_-]*)`),
	"ashby":           regexp.MustCompile(`jobs\.ashbyhq\.com/([A-Za-z0-9][A-Za-z0-9_-]*)`),
	"workable":        regexp.MustCompile(`apply\.workable\.com/([a-z0-9][a-z0-9_-]*)`),
	"smartrecruiters": regexp.MustCompile(`careers\.smartrecruiters\.com/([A-Za-z0-9][A-Za-z0-9_-]*)`),
}

// slugBlocklist drops path segments that appear where a company slug
// should be but are not one.
var slugBlocklist = map[string]bool{
	"embed": true, "job": true, "jobs": true, "api": true, "v1": true,
}

var defaultQueries = []string{
	`site:boards.greenhouse.io "software engineer"`,
	`site:jobs.lever.co "software engineer"`,
	`site:jobs.ashbyhq.com "software engineer"`,
	`site:boards.greenhouse.io "backend engineer" remote`,
	`site:jobs.lever.co "backend engineer" remote`,
}

// seedCompanies keeps the board fetcher useful before any search-based
// discovery has run.
var seedCompanies = []model.DiscoveredCompany{
	{Platform: "greenhouse", Slug: "stripe", Name: "Stripe"},
	{Platform: "greenhouse", Slug: "cloudflare", Name: "Cloudflare"},
	{Platform: "greenhouse", Slug: "gitlab", Name: "GitLab"},
	{Platform: "lever", Slug: "plaid", Name: "Plaid"},
	{Platform: "lever", Slug: "figma", Name: "Figma"},
	{Platform: "ashby", Slug: "linear", Name: "Linear"},
	{Platform: "ashby", Slug: "replit", Name: "Replit"},
}

// Discoverer runs one discovery pass: search for board URLs, extract
// (platform, slug) pairs, and upsert them into the company store.
type Discoverer struct {
	search    SearchClient
	companies model.CompanyStore
	maxBudget int
	queries   []string
	logger    *slog.Logger
	now       func() time.Time
}

func NewDiscoverer(search SearchClient, companies model.CompanyStore, maxBudget int, queries []string, logger *slog.Logger) *Discoverer {
	if maxBudget <= 0 {
		maxBudget = 100
	}
	if len(queries) == 0 {
		queries = defaultQueries
	}
	return &Discoverer{
		search:    search,
		companies: companies,
		maxBudget: maxBudget,
		queries:   queries,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one discovery pass and returns the number of newly stored
// companies. The search budget caps how many result URLs are consumed in
// total; seeds do not count against it.
func (d *Discoverer) Run(ctx context.Context) (int, error) {
	found := append([]model.DiscoveredCompany(nil), seedCompanies...)

	if d.search != nil {
		budget := d.maxBudget
		for _, query := range d.queries {
			if budget <= 0 {
				break
			}
			urls, err := d.search.Search(ctx, query, budget)
			if err != nil {
				d.logger.Warn("discovery search failed", "query", query, "error", err)
				continue
			}
			budget -= len(urls)

			for _, u := range urls {
				if company, ok := ExtractCompany(u); ok {
					found = append(found, company)
				}
			}
		}
	}

	now := d.now().UTC()
	for i := range found {
		found[i].DiscoveredAt = now
	}

	added, err := d.companies.UpsertCompanies(ctx, dedupe(found))
	if err != nil {
		return 0, fmt.Errorf("storing discovered companies: %w", err)
	}
	d.logger.Info("discovery pass complete", "candidates", len(found), "new", added)
	return added, nil
}

// ExtractCompany pulls a (platform, slug) pair out of a board URL.
func ExtractCompany(url string) (model.DiscoveredCompany, bool) {
	for platform, pattern := range boardURLPatterns {
		m := pattern.FindStringSubmatch(url)
		if m == nil {
			continue
		}
		slug := m[1]
		if slugBlocklist[slug] {
			continue
		}
		return model.DiscoveredCompany{Platform: platform, Slug: slug}, true
	}
	return model.DiscoveredCompany{}, false
}

func dedupe(companies []model.DiscoveredCompany) []model.DiscoveredCompany {
	seen := make(map[string]bool, len(companies))
	out := companies[:0]
	for _, c := range companies {
		key := c.Platform + "/" + c.Slug
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
