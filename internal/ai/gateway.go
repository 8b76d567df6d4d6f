package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/XploY04/jobs.ai/internal/extract"
	"github.com/XploY04/jobs.ai/internal/model"
)

const defaultChunkSize = 5

// maxDescriptionChars limits how much of a raw description is sent to the
// backend; anything longer blows up token usage without improving extraction.
const maxDescriptionChars = 2000

// Gateway turns batches of raw source records into canonical extracted
// fields by calling an LLM backend, falling back to per-item retries when a
// batch response cannot be used.
type Gateway struct {
	provider  LLMProvider
	chunkSize int
	logger    *slog.Logger
}

func NewGateway(provider LLMProvider, chunkSize int, logger *slog.Logger) *Gateway {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Gateway{provider: provider, chunkSize: chunkSize, logger: logger}
}

// ProcessBatch extracts canonical fields for every record in raws. The
// result always has the same length and order as the input; a nil entry
// means extraction failed for that record and the caller should fall back
// to rule-based extraction.
func (g *Gateway) ProcessBatch(ctx context.Context, source string, raws []model.RawRecord) []*model.ExtractedFields {
	out := make([]*model.ExtractedFields, len(raws))
	for start := 0; start < len(raws); start += g.chunkSize {
		end := start + g.chunkSize
		if end > len(raws) {
			end = len(raws)
		}
		chunk := raws[start:end]
		results := g.processChunk(ctx, source, chunk)
		copy(out[start:end], results)
	}
	return out
}

// processChunk makes one backend call for the chunk. On call or parse
// failure every record in the chunk is retried once individually.
func (g *Gateway) processChunk(ctx context.Context, source string, chunk []model.RawRecord) []*model.ExtractedFields {
	results := make([]*model.ExtractedFields, len(chunk))

	prompt, err := renderBatchPrompt(source, chunk)
	if err != nil {
		g.logger.Error("failed to render extraction prompt", "source", source, "error", err)
		return results
	}

	resp, err := g.provider.Complete(ctx, prompt)
	if err != nil {
		g.logger.Warn("batch extraction call failed, retrying records individually",
			"source", source, "records", len(chunk), "error", err)
		g.retryIndividually(ctx, source, chunk, results)
		return results
	}

	items, err := parseBatchResponse(resp)
	if err != nil {
		g.logger.Warn("unusable batch extraction response, retrying records individually",
			"source", source, "records", len(chunk), "error", err)
		g.retryIndividually(ctx, source, chunk, results)
		return results
	}

	if len(items) != len(chunk) {
		g.logger.Warn("batch extraction returned wrong cardinality",
			"source", source, "want", len(chunk), "got", len(items))
	}
	for i := range chunk {
		if i < len(items) {
			results[i] = items[i].canonical()
		}
	}
	return results
}

func (g *Gateway) retryIndividually(ctx context.Context, source string, chunk []model.RawRecord, results []*model.ExtractedFields) {
	for i, raw := range chunk {
		fields, err := g.processSingle(ctx, source, raw)
		if err != nil {
			g.logger.Warn("single-record extraction failed", "source", source, "error", err)
			continue
		}
		results[i] = fields
	}
}

func (g *Gateway) processSingle(ctx context.Context, source string, raw model.RawRecord) (*model.ExtractedFields, error) {
	encoded, err := encodeRecords([]model.RawRecord{raw})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := singlePromptTmpl.Execute(&buf, map[string]string{
		"Source": source,
		"Record": encoded,
	}); err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	resp, err := g.provider.Complete(ctx, buf.String())
	if err != nil {
		return nil, err
	}
	var item wireJob
	if err := json.Unmarshal([]byte(stripCodeFences(resp)), &item); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return item.canonical(), nil
}

func renderBatchPrompt(source string, chunk []model.RawRecord) (string, error) {
	encoded, err := encodeRecords(chunk)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = batchPromptTmpl.Execute(&buf, map[string]any{
		"Source":  source,
		"Count":   len(chunk),
		"Records": encoded,
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// encodeRecords JSON-encodes the raw records with long descriptions
// truncated.
func encodeRecords(raws []model.RawRecord) (string, error) {
	trimmed := make([]model.RawRecord, len(raws))
	for i, raw := range raws {
		rec := make(model.RawRecord, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok && len(s) > maxDescriptionChars {
				v = s[:maxDescriptionChars]
			}
			rec[k] = v
		}
		trimmed[i] = rec
	}
	data, err := json.Marshal(trimmed)
	if err != nil {
		return "", fmt.Errorf("encoding raw records: %w", err)
	}
	return string(data), nil
}

func parseBatchResponse(resp string) ([]wireJob, error) {
	var items []wireJob
	if err := json.Unmarshal([]byte(stripCodeFences(resp)), &items); err != nil {
		return nil, fmt.Errorf("parsing response array: %w", err)
	}
	return items, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a json language tag. Models add these despite being told not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
	} else {
		return s
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// wireJob mirrors ExtractedFields but tolerates the looser typing LLMs
// produce: salary values may come back as numbers, dates as strings.
type wireJob struct {
	Title            string `json:"title"`
	Company          string `json:"company"`
	CompanyLogo      string `json:"company_logo"`
	CompanyWebsite   string `json:"company_website"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`

	City            string `json:"city"`
	State           string `json:"state"`
	Country         string `json:"country"`
	IsRemote        bool   `json:"is_remote"`
	WorkArrangement string `json:"work_arrangement"`

	EmploymentType string `json:"employment_type"`
	SeniorityLevel string `json:"seniority_level"`
	Department     string `json:"department"`
	Category       string `json:"category"`

	SalaryMin      flexString `json:"salary_min"`
	SalaryMax      flexString `json:"salary_max"`
	SalaryCurrency string     `json:"salary_currency"`
	SalaryPeriod   string     `json:"salary_period"`

	Skills                  []string `json:"skills"`
	RequiredExperienceYears flexInt  `json:"required_experience_years"`
	RequiredEducation       string   `json:"required_education"`
	KeyResponsibilities     []string `json:"key_responsibilities"`
	NiceToHaveSkills        []string `json:"nice_to_have_skills"`
	Benefits                []string `json:"benefits"`
	VisaSponsorship         string   `json:"visa_sponsorship"`
	Tags                    []string `json:"tags"`

	ApplyURL     string `json:"apply_url"`
	PostedAt     string `json:"posted_at"`
	DeadlineText string `json:"deadline_text"`
}

func (w wireJob) canonical() *model.ExtractedFields {
	f := &model.ExtractedFields{
		Title:            strings.TrimSpace(w.Title),
		Company:          strings.TrimSpace(w.Company),
		CompanyLogo:      w.CompanyLogo,
		CompanyWebsite:   w.CompanyWebsite,
		ShortDescription: w.ShortDescription,
		Description:      strings.TrimSpace(w.Description),

		City:            w.City,
		State:           w.State,
		Country:         w.Country,
		IsRemote:        w.IsRemote,
		WorkArrangement: w.WorkArrangement,

		EmploymentType: strings.ToUpper(strings.ReplaceAll(w.EmploymentType, "-", "")),
		SeniorityLevel: strings.ToLower(w.SeniorityLevel),
		Department:     w.Department,
		Category:       strings.ToLower(w.Category),

		SalaryMin:      string(w.SalaryMin),
		SalaryMax:      string(w.SalaryMax),
		SalaryCurrency: w.SalaryCurrency,
		SalaryPeriod:   w.SalaryPeriod,

		Skills:                  w.Skills,
		RequiredExperienceYears: int(w.RequiredExperienceYears),
		RequiredEducation:       w.RequiredEducation,
		KeyResponsibilities:     w.KeyResponsibilities,
		NiceToHaveSkills:        w.NiceToHaveSkills,
		Benefits:                w.Benefits,
		VisaSponsorship:         w.VisaSponsorship,
		Tags:                    w.Tags,

		ApplyURL:     w.ApplyURL,
		DeadlineText: w.DeadlineText,
	}
	if w.PostedAt != "" {
		f.PostedAt = extract.ParseTime(w.PostedAt)
	}
	if w.DeadlineText != "" {
		f.ApplicationDeadline = extract.ParseDeadline(w.DeadlineText)
	}
	return f
}

// flexString accepts either a JSON string or a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number, a numeric string, or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*f = flexInt(int(v))
	return nil
}
