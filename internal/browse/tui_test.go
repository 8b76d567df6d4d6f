package browse

import (
	"testing"

	"github.com/XploY04/jobs.ai/internal/model"
)

func TestLocationLine(t *testing.T) {
	cases := []struct {
		job  model.Job
		want string
	}{
		{model.Job{City: "Berlin", Country: "Germany"}, "Berlin, Germany"},
		{model.Job{City: "Berlin", Country: "Germany", IsRemote: true}, "Berlin, Germany (remote)"},
		{model.Job{IsRemote: true}, "Remote"},
		{model.Job{}, "Unknown"},
		{model.Job{Country: "US"}, "US"},
	}
	for _, tc := range cases {
		if got := locationLine(tc.job); got != tc.want {
			t.Errorf("locationLine(%+v) = %q, want %q", tc.job, got, tc.want)
		}
	}
}

func TestSalaryLine(t *testing.T) {
	job := model.Job{SalaryMin: "90000", SalaryMax: "120000", SalaryCurrency: "USD"}
	if got := salaryLine(job); got != "90000 - 120000 USD" {
		t.Errorf("salaryLine = %q", got)
	}
	if got := salaryLine(model.Job{SalaryMin: "90000", SalaryCurrency: "USD"}); got != "from 90000 USD" {
		t.Errorf("salaryLine = %q", got)
	}
	if got := salaryLine(model.Job{}); got != "" {
		t.Errorf("salaryLine = %q", got)
	}
}
