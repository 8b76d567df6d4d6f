// Package extract implements the rule-based fallback extractor: a pure,
// per-source field mapping from raw source payloads to the canonical field
// set. It runs when AI processing is disabled and as the per-item fallback
// when an AI batch call fails.
package extract

import (
	"fmt"
	"strings"

	"github.com/XploY04/jobs.ai/internal/model"
)

// Source names known to the extractor. Each has its own typed mapping
// function; an unknown source is a rejection, not a panic.
const (
	SourceRemoteOK   = "remoteok"
	SourceJSearch    = "jsearch"
	SourceAdzuna     = "adzuna"
	SourceHackerNews = "hackernews"
	SourceRSSFeed    = "rss_feed"
	SourceATSScraper = "ats_scraper"
)

var validEmploymentTypes = map[string]bool{
	"FULLTIME":  true,
	"PARTTIME":  true,
	"CONTRACT":  true,
	"INTERN":    true,
	"TEMPORARY": true,
}

// Fallback maps a raw record to extracted fields using the source's fixed
// field mapping. It is deterministic, does no I/O, and never panics: any
// malformed input yields an error the caller treats as a per-record failure.
func Fallback(source string, raw model.RawRecord) (*model.ExtractedFields, error) {
	if raw == nil {
		return nil, fmt.Errorf("extract %s: nil raw record", source)
	}

	var fields *model.ExtractedFields
	switch source {
	case SourceRemoteOK:
		fields = mapRemoteOK(raw)
	case SourceJSearch:
		fields = mapJSearch(raw)
	case SourceAdzuna:
		fields = mapAdzuna(raw)
	case SourceHackerNews:
		fields = mapHackerNews(raw)
	case SourceRSSFeed:
		fields = mapRSSFeed(raw)
	case SourceATSScraper:
		fields = mapATSScraper(raw)
	default:
		return nil, fmt.Errorf("extract: no field mapping for source %q", source)
	}

	fields.Title = strings.TrimSpace(fields.Title)
	fields.Description = strings.TrimSpace(fields.Description)
	if fields.Title == "" {
		return nil, fmt.Errorf("extract %s: empty title", source)
	}
	if fields.Description == "" {
		return nil, fmt.Errorf("extract %s: empty description", source)
	}

	fields.EmploymentType = normalizeEmploymentType(fields.EmploymentType)
	return fields, nil
}

func normalizeEmploymentType(v string) string {
	upper := strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(v, "-", ""), " ", ""))
	if validEmploymentTypes[upper] {
		return upper
	}
	return "FULLTIME"
}

// mapRemoteOK handles the RemoteOK public API shape. Every posting there is
// remote by definition; posted_at arrives as a unix epoch.
func mapRemoteOK(raw model.RawRecord) *model.ExtractedFields {
	return &model.ExtractedFields{
		Title:           str(raw, "position"),
		Company:         str(raw, "company"),
		CompanyLogo:     str(raw, "company_logo"),
		Description:     str(raw, "description"),
		Country:         strOr(raw, "location", "Remote"),
		IsRemote:        true,
		WorkArrangement: "remote",
		EmploymentType:  str(raw, "type"),
		SalaryMin:       numStr(raw, "salary_min"),
		SalaryMax:       numStr(raw, "salary_max"),
		SalaryCurrency:  strOr(raw, "salary_currency", "USD"),
		Tags:            strSlice(raw, "tags"),
		ApplyURL:        str(raw, "url"),
		PostedAt:        timeVal(raw, "epoch", "date"),
	}
}

// mapJSearch handles the JSearch (RapidAPI) shape.
func mapJSearch(raw model.RawRecord) *model.ExtractedFields {
	return &model.ExtractedFields{
		Title:          str(raw, "job_title"),
		Company:        str(raw, "employer_name"),
		CompanyLogo:    str(raw, "employer_logo"),
		CompanyWebsite: str(raw, "employer_website"),
		Description:    str(raw, "job_description"),
		City:           str(raw, "job_city"),
		State:          str(raw, "job_state"),
		Country:        str(raw, "job_country"),
		IsRemote:       boolVal(raw, "job_is_remote"),
		EmploymentType: str(raw, "job_employment_type"),
		SalaryMin:      numStr(raw, "job_min_salary"),
		SalaryMax:      numStr(raw, "job_max_salary"),
		SalaryCurrency: strOr(raw, "job_salary_currency", "USD"),
		SalaryPeriod:   str(raw, "job_salary_period"),
		ApplyURL:       str(raw, "job_apply_link"),
		PostedAt:       timeVal(raw, "job_posted_at_datetime_utc"),
		DeadlineText:   str(raw, "job_offer_expiration_datetime_utc"),
	}
}

// mapAdzuna handles the Adzuna search API shape. The fetcher stashes the
// query country under "_country" since the payload itself omits it.
func mapAdzuna(raw model.RawRecord) *model.ExtractedFields {
	country := str(raw, "_country")
	currency := "USD"
	if strings.EqualFold(country, "gb") {
		currency = "GBP"
	}
	return &model.ExtractedFields{
		Title:          str(raw, "title"),
		Company:        nestedStr(raw, "company", "display_name"),
		Description:    str(raw, "description"),
		City:           nestedStr(raw, "location", "display_name"),
		Country:        strings.ToUpper(country),
		EmploymentType: str(raw, "contract_type"),
		SalaryMin:      numStr(raw, "salary_min"),
		SalaryMax:      numStr(raw, "salary_max"),
		SalaryCurrency: currency,
		Category:       nestedStr(raw, "category", "label"),
		ApplyURL:       str(raw, "redirect_url"),
		PostedAt:       timeVal(raw, "created"),
	}
}

// mapHackerNews handles pre-chewed "Who is Hiring?" comment records. The
// fetcher has already pulled apart the comment text; location lands in
// country as free text.
func mapHackerNews(raw model.RawRecord) *model.ExtractedFields {
	return &model.ExtractedFields{
		Title:       str(raw, "title"),
		Company:     str(raw, "company"),
		Description: str(raw, "description"),
		Country:     str(raw, "location_raw"),
		IsRemote:    boolVal(raw, "remote"),
		ApplyURL:    str(raw, "apply_url"),
		PostedAt:    timeVal(raw, "posted_at", "hn_time"),
	}
}

// mapRSSFeed handles generic feed entries already flattened by the fetcher.
func mapRSSFeed(raw model.RawRecord) *model.ExtractedFields {
	return &model.ExtractedFields{
		Title:       str(raw, "title"),
		Company:     str(raw, "company"),
		Description: str(raw, "description"),
		Country:     str(raw, "location_raw"),
		IsRemote:    boolVal(raw, "remote"),
		ApplyURL:    str(raw, "apply_url"),
		SourceURL:   str(raw, "feed_url"),
		PostedAt:    timeVal(raw, "posted_at"),
	}
}

// mapATSScraper is a passthrough: the ATS board fetcher already emits
// canonical keys.
func mapATSScraper(raw model.RawRecord) *model.ExtractedFields {
	return &model.ExtractedFields{
		Title:          str(raw, "title"),
		Company:        str(raw, "company"),
		Description:    str(raw, "description"),
		City:           str(raw, "_location_city"),
		Country:        str(raw, "_location_country"),
		IsRemote:       boolVal(raw, "_location_remote"),
		EmploymentType: str(raw, "employment_type"),
		SalaryMin:      numStr(raw, "salary_min"),
		SalaryMax:      numStr(raw, "salary_max"),
		SalaryCurrency: strOr(raw, "salary_currency", "USD"),
		Department:     str(raw, "department"),
		ApplyURL:       str(raw, "apply_url"),
		PostedAt:       timeVal(raw, "posted_at"),
	}
}
