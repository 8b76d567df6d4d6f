package model

import (
	"context"
	"time"
)

// RawRecord is an opaque source-shaped payload produced by a fetcher.
// Keys and value types are entirely up to the source; the pipeline treats
// it as read-only and never mutates it.
type RawRecord map[string]any

// ExtractedFields holds the canonical fields produced by either the AI
// gateway or the rule-based fallback extractor. Every field is optional at
// this stage except Title and Description, which must be non-empty after
// trimming for the record to reach finalization.
type ExtractedFields struct {
	Title            string `json:"title"`
	Company          string `json:"company"`
	CompanyLogo      string `json:"company_logo,omitempty"`
	CompanyWebsite   string `json:"company_website,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	Description      string `json:"description"`

	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Country         string `json:"country,omitempty"`
	IsRemote        bool   `json:"is_remote"`
	WorkArrangement string `json:"work_arrangement,omitempty"` // remote, hybrid, onsite

	EmploymentType string `json:"employment_type,omitempty"` // FULLTIME, PARTTIME, CONTRACT, INTERN, TEMPORARY
	SeniorityLevel string `json:"seniority_level,omitempty"` // junior, mid, senior, staff, principal
	Department     string `json:"department,omitempty"`
	Category       string `json:"category,omitempty"`

	SalaryMin      string `json:"salary_min,omitempty"`
	SalaryMax      string `json:"salary_max,omitempty"`
	SalaryCurrency string `json:"salary_currency,omitempty"`
	SalaryPeriod   string `json:"salary_period,omitempty"`

	Skills                  []string `json:"skills,omitempty"`
	RequiredExperienceYears int      `json:"required_experience_years,omitempty"`
	RequiredEducation       string   `json:"required_education,omitempty"`
	KeyResponsibilities     []string `json:"key_responsibilities,omitempty"`
	NiceToHaveSkills        []string `json:"nice_to_have_skills,omitempty"`
	Benefits                []string `json:"benefits,omitempty"`
	VisaSponsorship         string   `json:"visa_sponsorship,omitempty"` // yes, no, unknown
	Tags                    []string `json:"tags,omitempty"`

	SourceURL           string     `json:"source_url,omitempty"`
	ApplyURL            string     `json:"apply_url,omitempty"`
	PostedAt            *time.Time `json:"posted_at,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`

	// DeadlineText carries an unparsed deadline string (some sources only
	// provide free text); the finalizer parses it into ApplicationDeadline.
	DeadlineText string `json:"deadline_text,omitempty"`
}

// Location is the legacy nested location object kept for backward-compatible
// consumers. It is re-derived from the flat city/country/remote fields during
// finalization.
type Location struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Remote  bool   `json:"remote"`
}

// Job is the persisted canonical record. Rows are immutable once written
// except for the derived fields patched by the enrichment pass (skills,
// category, seniority, quality score).
type Job struct {
	ID       string `json:"id"`     // "{source}_{source_id}"
	Source   string `json:"source"` // source name, e.g. "remoteok"
	SourceID string `json:"source_id"`

	Title            string `json:"title"`
	Company          string `json:"company"`
	CompanyLogo      string `json:"company_logo,omitempty"`
	CompanyWebsite   string `json:"company_website,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	Description      string `json:"description"`

	City            string   `json:"city,omitempty"`
	State           string   `json:"state,omitempty"`
	Country         string   `json:"country,omitempty"`
	IsRemote        bool     `json:"is_remote"`
	WorkArrangement string   `json:"work_arrangement,omitempty"`
	Location        Location `json:"location"`

	EmploymentType string `json:"employment_type,omitempty"`
	SeniorityLevel string `json:"seniority_level,omitempty"`
	Department     string `json:"department,omitempty"`
	Category       string `json:"category,omitempty"`

	SalaryMin      string `json:"salary_min,omitempty"`
	SalaryMax      string `json:"salary_max,omitempty"`
	SalaryCurrency string `json:"salary_currency,omitempty"`
	SalaryPeriod   string `json:"salary_period,omitempty"`

	Skills                  []string `json:"skills,omitempty"`
	RequiredExperienceYears int      `json:"required_experience_years,omitempty"`
	RequiredEducation       string   `json:"required_education,omitempty"`
	KeyResponsibilities     []string `json:"key_responsibilities,omitempty"`
	NiceToHaveSkills        []string `json:"nice_to_have_skills,omitempty"`
	Benefits                []string `json:"benefits,omitempty"`
	VisaSponsorship         string   `json:"visa_sponsorship,omitempty"`
	Tags                    []string `json:"tags,omitempty"`
	Urgency                 string   `json:"urgency,omitempty"` // urgent, normal, low

	ApplyURL            string     `json:"apply_url"`
	SourceURL           string     `json:"source_url,omitempty"`
	PostedAt            time.Time  `json:"posted_at"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	FetchedAt           time.Time  `json:"fetched_at,omitempty"`

	QualityScore     int    `json:"quality_score"`
	TitleCompanyHash string `json:"-"` // dedup fingerprint, not exposed via the API

	RawData RawRecord `json:"-"` // original payload retained for audit/replay
}

// SaveStats reports the outcome of one idempotent batch save.
type SaveStats struct {
	New     int `json:"new"`
	Skipped int `json:"skipped"`
}

// Add accumulates another batch's stats.
func (s *SaveStats) Add(other SaveStats) {
	s.New += other.New
	s.Skipped += other.Skipped
}

// MaxPageSize caps the page size of any listing query.
const MaxPageSize = 200

// ListQuery holds the filter and pagination parameters for job listings.
// Limit is clamped to [1, MaxPageSize] by the store.
type ListQuery struct {
	Limit          int
	Offset         int
	Search         string
	Sources        []string
	EmploymentType string
	RemoteOnly     bool
	Seniority      []string
	Category       []string
}

// EnrichmentPatch is the fixed subset of derived fields the out-of-band
// enrichment pass may update. Identity fields are deliberately absent.
type EnrichmentPatch struct {
	Skills         []string
	Category       string
	SeniorityLevel string
	QualityScore   int
	Urgency        string
}

// DiscoveredCompany is a (platform, slug) pair produced by the company
// discovery crawler and consumed by the ATS board fetcher.
type DiscoveredCompany struct {
	Platform     string // greenhouse, lever, ashby, workable, smartrecruiters
	Slug         string
	Name         string
	DiscoveredAt time.Time
}

// SourceFetcher fetches raw records from one external source. Ordinary
// network failures surface as an error; the coordinator logs them and
// treats the source as having produced no data for the cycle.
type SourceFetcher interface {
	Name() string
	FetchJobs(ctx context.Context) ([]RawRecord, error)
}

// JobStore is the persistence boundary for canonical jobs.
// SaveJobs must be idempotent per record and safe under concurrent calls.
type JobStore interface {
	SaveJobs(ctx context.Context, jobs []Job) (SaveStats, error)
	ListJobs(ctx context.Context, q ListQuery) ([]Job, error)
	CountJobs(ctx context.Context, q ListQuery) (int, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	FilterOptions(ctx context.Context) (map[string]map[string]int, error)
	UpdateEnrichment(ctx context.Context, id string, patch EnrichmentPatch) error
	Close() error
}

// CompanyStore persists discovered ATS company slugs.
type CompanyStore interface {
	UpsertCompanies(ctx context.Context, companies []DiscoveredCompany) (int, error)
	ListCompanies(ctx context.Context, platform string) ([]DiscoveredCompany, error)
}
