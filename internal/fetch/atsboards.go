package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/XploY04/jobs.ai/internal/extract"
	"github.com/XploY04/jobs.ai/internal/model"
)

const (
	defaultGreenhouseURL = "https://boards-api.greenhouse.io/v1/boards"
	defaultLeverURL      = "https://api.lever.co/v0/postings"
	defaultAshbyURL      = "https://api.ashbyhq.com/posting-api/job-board"

	// PlatformGreenhouse and friends are the ATS backends the board
	// fetcher and the discovery crawler agree on.
	PlatformGreenhouse = "greenhouse"
	PlatformLever      = "lever"
	PlatformAshby      = "ashby"
)

// ATSBoardFetcher walks the companies found by the discovery crawler and
// pulls each one's public ATS board. One bad board never fails the whole
// fetch; the error is logged and the next company is tried.
type ATSBoardFetcher struct {
	companies     model.CompanyStore
	limiter       *HostRateLimiter
	client        *http.Client
	maxCompanies  int
	greenhouseURL string
	leverURL      string
	ashbyURL      string
	logger        *slog.Logger
}

// ATSBoardOption overrides a fetcher default, mainly for tests.
type ATSBoardOption func(*ATSBoardFetcher)

func WithATSBaseURLs(greenhouse, lever, ashby string) ATSBoardOption {
	return func(f *ATSBoardFetcher) {
		if greenhouse != "" {
			f.greenhouseURL = greenhouse
		}
		if lever != "" {
			f.leverURL = lever
		}
		if ashby != "" {
			f.ashbyURL = ashby
		}
	}
}

func NewATSBoardFetcher(companies model.CompanyStore, limiter *HostRateLimiter, maxCompanies int, client *http.Client, logger *slog.Logger, opts ...ATSBoardOption) *ATSBoardFetcher {
	if maxCompanies <= 0 {
		maxCompanies = 50
	}
	f := &ATSBoardFetcher{
		companies:     companies,
		limiter:       limiter,
		client:        client,
		maxCompanies:  maxCompanies,
		greenhouseURL: defaultGreenhouseURL,
		leverURL:      defaultLeverURL,
		ashbyURL:      defaultAshbyURL,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *ATSBoardFetcher) Name() string {
	return extract.SourceATSScraper
}

func (f *ATSBoardFetcher) FetchJobs(ctx context.Context) ([]model.RawRecord, error) {
	companies, err := f.companies.ListCompanies(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("ats fetch: listing companies: %w", err)
	}
	if len(companies) > f.maxCompanies {
		companies = companies[:f.maxCompanies]
	}

	var raws []model.RawRecord
	for _, company := range companies {
		var fetchBoard func(context.Context, model.DiscoveredCompany) ([]model.RawRecord, error)
		switch company.Platform {
		case PlatformGreenhouse:
			fetchBoard = f.fetchGreenhouse
		case PlatformLever:
			fetchBoard = f.fetchLever
		case PlatformAshby:
			fetchBoard = f.fetchAshby
		default:
			f.logger.Warn("skipping company on unsupported platform",
				"platform", company.Platform, "slug", company.Slug)
			continue
		}

		if err := f.limiter.Wait(ctx, company.Platform); err != nil {
			return raws, err
		}

		boardRaws, err := fetchBoard(ctx, company)
		if err != nil {
			f.logger.Warn("failed to fetch ats board",
				"platform", company.Platform, "slug", company.Slug, "error", err)
			continue
		}
		raws = append(raws, boardRaws...)
	}
	return raws, nil
}

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
}

func (f *ATSBoardFetcher) fetchGreenhouse(ctx context.Context, company model.DiscoveredCompany) ([]model.RawRecord, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", f.greenhouseURL, company.Slug)

	var resp struct {
		Jobs []greenhouseJob `json:"jobs"`
	}
	if err := getJSON(ctx, f.client, url, nil, &resp); err != nil {
		return nil, err
	}

	raws := make([]model.RawRecord, 0, len(resp.Jobs))
	for _, gj := range resp.Jobs {
		if !MatchesTechRole(gj.Title) {
			continue
		}
		department := ""
		if len(gj.Departments) > 0 {
			department = gj.Departments[0].Name
		}
		raws = append(raws, f.boardRecord(company, boardPosting{
			id:          fmt.Sprintf("gh_%s_%d", company.Slug, gj.ID),
			title:       gj.Title,
			description: extractText(gj.Content),
			location:    gj.Location.Name,
			department:  department,
			applyURL:    gj.AbsoluteURL,
			postedAt:    gj.UpdatedAt,
		}))
	}
	return raws, nil
}

type leverJob struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	DescriptionPlain string `json:"descriptionPlain"`
	HostedURL        string `json:"hostedUrl"`
	CreatedAt        int64  `json:"createdAt"` // epoch millis
	WorkplaceType    string `json:"workplaceType"`
	Categories       struct {
		Team       string `json:"team"`
		Location   string `json:"location"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
}

func (f *ATSBoardFetcher) fetchLever(ctx context.Context, company model.DiscoveredCompany) ([]model.RawRecord, error) {
	url := fmt.Sprintf("%s/%s?mode=json", f.leverURL, company.Slug)

	var postings []leverJob
	if err := getJSON(ctx, f.client, url, nil, &postings); err != nil {
		return nil, err
	}

	raws := make([]model.RawRecord, 0, len(postings))
	for _, lj := range postings {
		if !MatchesTechRole(lj.Text) {
			continue
		}
		var postedAt any
		if lj.CreatedAt > 0 {
			postedAt = time.UnixMilli(lj.CreatedAt).UTC().Format(time.RFC3339)
		}
		rec := f.boardRecord(company, boardPosting{
			id:             fmt.Sprintf("lv_%s_%s", company.Slug, lj.ID),
			title:          lj.Text,
			description:    lj.DescriptionPlain,
			location:       lj.Categories.Location,
			department:     lj.Categories.Team,
			employmentType: lj.Categories.Commitment,
			applyURL:       lj.HostedURL,
			remote:         strings.EqualFold(lj.WorkplaceType, "remote"),
		})
		if postedAt != nil {
			rec["posted_at"] = postedAt
		}
		raws = append(raws, rec)
	}
	return raws, nil
}

type ashbyJob struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Location         string `json:"location"`
	EmploymentType   string `json:"employmentType"`
	JobURL           string `json:"jobUrl"`
	PublishedAt      string `json:"publishedAt"`
	IsListed         bool   `json:"isListed"`
	IsRemote         bool   `json:"isRemote"`
	DescriptionPlain string `json:"descriptionPlain"`
	Department       string `json:"department"`
}

func (f *ATSBoardFetcher) fetchAshby(ctx context.Context, company model.DiscoveredCompany) ([]model.RawRecord, error) {
	url := fmt.Sprintf("%s/%s?includeCompensation=true", f.ashbyURL, company.Slug)

	var resp struct {
		Jobs []ashbyJob `json:"jobs"`
	}
	if err := getJSON(ctx, f.client, url, nil, &resp); err != nil {
		return nil, err
	}

	raws := make([]model.RawRecord, 0, len(resp.Jobs))
	for _, aj := range resp.Jobs {
		if !aj.IsListed || !MatchesTechRole(aj.Title) {
			continue
		}
		raws = append(raws, f.boardRecord(company, boardPosting{
			id:             fmt.Sprintf("ab_%s_%s", company.Slug, aj.ID),
			title:          aj.Title,
			description:    aj.DescriptionPlain,
			location:       aj.Location,
			department:     aj.Department,
			employmentType: aj.EmploymentType,
			applyURL:       aj.JobURL,
			postedAt:       aj.PublishedAt,
			remote:         aj.IsRemote,
		}))
	}
	return raws, nil
}

// boardPosting is the platform-neutral intermediate the three board shapes
// collapse into.
type boardPosting struct {
	id             string
	title          string
	description    string
	location       string
	department     string
	employmentType string
	applyURL       string
	postedAt       string
	remote         bool
}

// boardRecord emits the canonical key set the ats_scraper extractor
// expects.
func (f *ATSBoardFetcher) boardRecord(company model.DiscoveredCompany, p boardPosting) model.RawRecord {
	companyName := company.Name
	if companyName == "" {
		companyName = company.Slug
	}

	city, country := splitLocation(p.location)
	remote := p.remote || strings.Contains(strings.ToLower(p.location), "remote")

	rec := model.RawRecord{
		"id":                p.id,
		"title":             p.title,
		"company":           companyName,
		"description":       p.description,
		"_location_city":    city,
		"_location_country": country,
		"_location_remote":  remote,
		"employment_type":   p.employmentType,
		"department":        p.department,
		"apply_url":         p.applyURL,
	}
	if p.postedAt != "" {
		rec["posted_at"] = p.postedAt
	}
	return rec
}

// splitLocation splits "City, Country" board locations; a single segment
// is treated as the city.
func splitLocation(location string) (city, country string) {
	parts := strings.Split(location, ",")
	city = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		country = strings.TrimSpace(parts[len(parts)-1])
	}
	return city, country
}
