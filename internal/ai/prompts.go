package ai

import "text/template"

// batchPromptTmpl asks for a JSON array with exactly one object per input
// record, in input order. The backend is not contractually guaranteed to
// preserve cardinality; the Gateway validates the array length.
var batchPromptTmpl = template.Must(template.New("batch").Parse(`Extract structured job data from the following {{.Count}} raw job postings from the "{{.Source}}" job source.

Return ONLY a JSON array with EXACTLY {{.Count}} objects, one per posting, in the same order as the input. No markdown, no commentary.

Each object must follow this schema (omit unknown fields):
{
  "title": "job title",
  "company": "company name",
  "company_logo": "logo URL",
  "company_website": "company website URL",
  "short_description": "one-sentence summary",
  "description": "full plain-text description",
  "city": "city", "state": "state/region", "country": "country",
  "is_remote": true,
  "work_arrangement": "remote|hybrid|onsite",
  "employment_type": "FULLTIME|PARTTIME|CONTRACT|INTERN|TEMPORARY",
  "seniority_level": "junior|mid|senior|staff|principal",
  "department": "team or department",
  "category": "frontend|backend|fullstack|devops|data|ml|general",
  "salary_min": "lower bound", "salary_max": "upper bound",
  "salary_currency": "ISO currency", "salary_period": "yearly|monthly|hourly",
  "skills": ["top 10 technical skills"],
  "required_experience_years": 0,
  "required_education": "degree requirement if stated",
  "key_responsibilities": ["max 5"],
  "nice_to_have_skills": ["max 5"],
  "benefits": ["max 5"],
  "visa_sponsorship": "yes|no|unknown",
  "tags": ["short keywords"],
  "apply_url": "application URL",
  "posted_at": "ISO-8601 timestamp if present in the data",
  "deadline_text": "application deadline as stated, verbatim"
}

Rules:
- visa_sponsorship is "yes" only when sponsorship is explicitly offered.
- required_experience_years: estimate from "X+ years" phrasing or seniority.
- Never invent salary figures; leave the fields out when not stated.

Raw postings:
{{.Records}}`))

// singlePromptTmpl is the one-record variant used by the per-item retry path.
var singlePromptTmpl = template.Must(template.New("single").Parse(`Extract structured job data from this raw job posting from the "{{.Source}}" job source.

Return ONLY one JSON object (no markdown, no commentary) following this schema, omitting unknown fields:
{"title","company","company_logo","company_website","short_description","description","city","state","country","is_remote","work_arrangement","employment_type","seniority_level","department","category","salary_min","salary_max","salary_currency","salary_period","skills","required_experience_years","required_education","key_responsibilities","nice_to_have_skills","benefits","visa_sponsorship","tags","apply_url","posted_at","deadline_text"}

Raw posting:
{{.Record}}`))
