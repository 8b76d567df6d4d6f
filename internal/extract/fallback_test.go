package extract

import (
	"testing"
	"time"

	"github.com/XploY04/jobs.ai/internal/model"
)

func TestFallback_RemoteOK(t *testing.T) {
	raw := model.RawRecord{
		"id":          "42",
		"position":    "Backend Engineer",
		"company":     "Acme",
		"description": "Build APIs with Go and Postgres.",
		"epoch":       float64(1700000000),
		"type":        "full-time",
		"url":         "https://remoteok.com/jobs/42",
		"tags":        []any{"golang", "postgres"},
	}

	fields, err := Fallback(SourceRemoteOK, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.Title != "Backend Engineer" {
		t.Errorf("Title = %q", fields.Title)
	}
	if !fields.IsRemote {
		t.Error("expected IsRemote true for remoteok")
	}
	if fields.EmploymentType != "FULLTIME" {
		t.Errorf("EmploymentType = %q, want FULLTIME", fields.EmploymentType)
	}
	if fields.PostedAt == nil {
		t.Fatal("expected PostedAt from epoch")
	}
	want := time.Unix(1700000000, 0).UTC()
	if !fields.PostedAt.Equal(want) {
		t.Errorf("PostedAt = %v, want %v", fields.PostedAt, want)
	}
	if len(fields.Tags) != 2 {
		t.Errorf("Tags = %v", fields.Tags)
	}
}

func TestFallback_JSearch(t *testing.T) {
	raw := model.RawRecord{
		"job_id":                     "abc123",
		"job_title":                  "DevOps Engineer",
		"employer_name":              "Globex",
		"job_description":            "Kubernetes and Terraform all day.",
		"job_city":                   "Austin",
		"job_country":                "US",
		"job_is_remote":              true,
		"job_employment_type":        "Contractor",
		"job_min_salary":             float64(120000),
		"job_max_salary":             float64(160000),
		"job_apply_link":             "https://example.com/apply",
		"job_posted_at_datetime_utc": "2026-08-20T10:00:00Z",
	}

	fields, err := Fallback(SourceJSearch, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.City != "Austin" || fields.Country != "US" {
		t.Errorf("location = %q/%q", fields.City, fields.Country)
	}
	if fields.SalaryMin != "120000" || fields.SalaryMax != "160000" {
		t.Errorf("salary = %q..%q", fields.SalaryMin, fields.SalaryMax)
	}
	// "Contractor" is not in the whitelist, falls back to FULLTIME.
	if fields.EmploymentType != "FULLTIME" {
		t.Errorf("EmploymentType = %q", fields.EmploymentType)
	}
	if fields.SalaryCurrency != "USD" {
		t.Errorf("SalaryCurrency = %q, want USD default", fields.SalaryCurrency)
	}
}

func TestFallback_AdzunaNestedCompanyAndCurrency(t *testing.T) {
	raw := model.RawRecord{
		"id":           float64(9001),
		"title":        "Platform Engineer",
		"company":      map[string]any{"display_name": "Initech"},
		"description":  "Own the build pipeline.",
		"location":     map[string]any{"display_name": "London"},
		"_country":     "gb",
		"created":      "2026-08-25T09:30:00Z",
		"redirect_url": "https://adzuna.example/redir",
	}

	fields, err := Fallback(SourceAdzuna, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.Company != "Initech" {
		t.Errorf("Company = %q", fields.Company)
	}
	if fields.SalaryCurrency != "GBP" {
		t.Errorf("SalaryCurrency = %q, want GBP for gb", fields.SalaryCurrency)
	}
	if fields.Country != "GB" {
		t.Errorf("Country = %q", fields.Country)
	}
}

func TestFallback_EmptyTitleRejected(t *testing.T) {
	raw := model.RawRecord{
		"position":    "   ",
		"company":     "Acme",
		"description": "something",
	}
	if _, err := Fallback(SourceRemoteOK, raw); err == nil {
		t.Fatal("expected rejection for blank title")
	}
}

func TestFallback_EmptyDescriptionRejected(t *testing.T) {
	raw := model.RawRecord{
		"position": "Engineer",
		"company":  "Acme",
	}
	if _, err := Fallback(SourceRemoteOK, raw); err == nil {
		t.Fatal("expected rejection for missing description")
	}
}

func TestFallback_UnknownSource(t *testing.T) {
	if _, err := Fallback("myspace", model.RawRecord{"title": "x"}); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestFallback_NilRecord(t *testing.T) {
	if _, err := Fallback(SourceRemoteOK, nil); err == nil {
		t.Fatal("expected error for nil record")
	}
}

func TestFallback_MalformedNestedTypes(t *testing.T) {
	// company is a string where a map is expected; must not panic.
	raw := model.RawRecord{
		"title":       "Engineer",
		"company":     "not-a-map",
		"description": "desc",
		"_country":    "us",
	}
	fields, err := Fallback(SourceAdzuna, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.Company != "" {
		t.Errorf("Company = %q, want empty for malformed nesting", fields.Company)
	}
}

func TestParseDeadlineRecognition(t *testing.T) {
	cases := []struct {
		in     string
		wantOK bool
	}{
		{"2026-03-15", true},
		{"March 15th", true},
		{"Mar 15, 2026", true},
		{"whenever", false},
		{"", false},
	}
	for _, tc := range cases {
		got := ParseDeadline(tc.in)
		if (got != nil) != tc.wantOK {
			t.Errorf("ParseDeadline(%q) = %v, want ok=%v", tc.in, got, tc.wantOK)
		}
	}
}

func TestParseTime_EpochString(t *testing.T) {
	got := ParseTime("1700000000")
	if got == nil || got.Unix() != 1700000000 {
		t.Errorf("ParseTime epoch string = %v", got)
	}
}
