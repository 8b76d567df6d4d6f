// Package enrich holds the rule-based enrichment layer: quality scoring,
// skills extraction, role categorization, and urgency detection. Everything
// here is pure and deterministic; the enricher at the bottom applies these
// over stored jobs as an out-of-band pass.
package enrich

import "github.com/XploY04/jobs.ai/internal/model"

// Score rates a job's completeness on a 0-100 scale. Weights: description
// length up to 25, salary bounds up to 25, location detail up to 20, company
// name 15, employment type 10, apply URL 5.
func Score(job model.Job) int {
	score := 0

	if len(job.Description) > 0 {
		switch {
		case len(job.Description) > 2000:
			score += 25
		case len(job.Description) > 1000:
			score += 20
		case len(job.Description) > 500:
			score += 15
		case len(job.Description) > 200:
			score += 10
		default:
			score += 5
		}
	}

	switch {
	case job.SalaryMin != "" && job.SalaryMax != "":
		score += 25
	case job.SalaryMin != "" || job.SalaryMax != "":
		score += 15
	}

	if job.City != "" {
		score += 5
	}
	if job.Country != "" {
		score += 5
	}
	// The canonical record always carries an explicit remote flag.
	score += 10

	if len(job.Company) > 2 {
		score += 15
	}
	if job.EmploymentType != "" {
		score += 10
	}
	if job.ApplyURL != "" {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
