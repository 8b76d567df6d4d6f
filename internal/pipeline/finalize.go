package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/XploY04/jobs.ai/internal/enrich"
	"github.com/XploY04/jobs.ai/internal/extract"
	"github.com/XploY04/jobs.ai/internal/model"
)

// RetentionWindow is how far back a posting date may lie before the record
// is dropped instead of stored.
const RetentionWindow = 15 * 24 * time.Hour

// PlaceholderApplyURL marks records whose source provided no usable
// application link.
const PlaceholderApplyURL = "https://unknown"

// UnknownCompany is the sentinel stored when no company name could be
// extracted.
const UnknownCompany = "Unknown"

var (
	// ErrStale rejects records posted outside the retention window.
	ErrStale = errors.New("posting older than retention window")
	// ErrIncomplete rejects records missing a title or description.
	ErrIncomplete = errors.New("record missing title or description")
)

// sourceIDKeys is the priority order for locating a stable per-source
// identifier in a raw record.
var sourceIDKeys = []string{"id", "job_id", "source_id", "hn_comment_id", "entry_id"}

// applyURLKeys is the priority order for backfilling an application link
// from the raw record when extraction produced none. The keys cover every
// source's link field.
var applyURLKeys = []string{"apply_url", "url", "redirect_url", "job_apply_link"}

// sourceURLKeys backfills the listing-page link the same way.
var sourceURLKeys = []string{"source_url", "feed_url"}

// Finalize assembles a persistable Job from extracted fields and the raw
// record they came from. It assigns identity, backfills defaults, enforces
// the retention window, and computes the dedup fingerprint and quality
// score. now is injected so retention checks are deterministic in tests.
func Finalize(source string, fields *model.ExtractedFields, raw model.RawRecord, now time.Time) (*model.Job, error) {
	if fields == nil {
		return nil, ErrIncomplete
	}
	title := strings.TrimSpace(fields.Title)
	description := strings.TrimSpace(fields.Description)
	if title == "" || description == "" {
		return nil, ErrIncomplete
	}

	company := strings.TrimSpace(fields.Company)
	if company == "" {
		company = UnknownCompany
	}

	sourceID := findSourceID(raw)
	if sourceID == "" {
		// Stable last resort: identical postings collapse to the same id.
		sourceID = model.HashTitleCompany(title, company)
	}

	postedAt := now
	if fields.PostedAt != nil {
		postedAt = *fields.PostedAt
	}
	if now.Sub(postedAt) > RetentionWindow {
		return nil, fmt.Errorf("%w: posted %s", ErrStale, postedAt.Format(time.RFC3339))
	}

	deadline := fields.ApplicationDeadline
	if deadline == nil && fields.DeadlineText != "" {
		deadline = extract.ParseDeadline(fields.DeadlineText)
	}

	applyURL := strings.TrimSpace(fields.ApplyURL)
	if applyURL == "" {
		applyURL = findRawURL(raw, applyURLKeys)
	}
	if applyURL == "" {
		applyURL = PlaceholderApplyURL
	}

	sourceURL := strings.TrimSpace(fields.SourceURL)
	if sourceURL == "" {
		sourceURL = findRawURL(raw, sourceURLKeys)
	}

	job := &model.Job{
		ID:       fmt.Sprintf("%s_%s", source, sourceID),
		Source:   source,
		SourceID: sourceID,

		Title:            title,
		Company:          company,
		CompanyLogo:      fields.CompanyLogo,
		CompanyWebsite:   fields.CompanyWebsite,
		ShortDescription: fields.ShortDescription,
		Description:      description,

		City:            fields.City,
		State:           fields.State,
		Country:         fields.Country,
		IsRemote:        fields.IsRemote,
		WorkArrangement: fields.WorkArrangement,
		Location: model.Location{
			City:    fields.City,
			Country: fields.Country,
			Remote:  fields.IsRemote,
		},

		EmploymentType: fields.EmploymentType,
		SeniorityLevel: fields.SeniorityLevel,
		Department:     fields.Department,
		Category:       fields.Category,

		SalaryMin:      fields.SalaryMin,
		SalaryMax:      fields.SalaryMax,
		SalaryCurrency: fields.SalaryCurrency,
		SalaryPeriod:   fields.SalaryPeriod,

		Skills:                  fields.Skills,
		RequiredExperienceYears: fields.RequiredExperienceYears,
		RequiredEducation:       fields.RequiredEducation,
		KeyResponsibilities:     fields.KeyResponsibilities,
		NiceToHaveSkills:        fields.NiceToHaveSkills,
		Benefits:                fields.Benefits,
		VisaSponsorship:         fields.VisaSponsorship,
		Tags:                    fields.Tags,

		ApplyURL:            applyURL,
		SourceURL:           sourceURL,
		PostedAt:            postedAt,
		ApplicationDeadline: deadline,
		FetchedAt:           now,

		TitleCompanyHash: model.HashTitleCompany(title, company),
		RawData:          copyRaw(raw),
	}
	job.QualityScore = enrich.Score(*job)
	return job, nil
}

func findSourceID(raw model.RawRecord) string {
	for _, key := range sourceIDKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch id := v.(type) {
		case string:
			if s := strings.TrimSpace(id); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", id)
		case int:
			return fmt.Sprintf("%d", id)
		case int64:
			return fmt.Sprintf("%d", id)
		}
	}
	return ""
}

// findRawURL returns the first URL-shaped string value under the given keys.
func findRawURL(raw model.RawRecord, keys []string) string {
	for _, key := range keys {
		s, ok := raw[key].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			return s
		}
	}
	return ""
}

// copyRaw shallow-copies the raw record so the stored job does not alias a
// map the fetcher may still hold.
func copyRaw(raw model.RawRecord) model.RawRecord {
	if raw == nil {
		return nil
	}
	out := make(model.RawRecord, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
