package enrich

import (
	"regexp"
	"sort"
	"strings"
)

// techPatterns maps a canonical skill name to a pattern matching its common
// spellings and flagship frameworks.
var techPatterns = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`(?i)\b(?:python|django|flask|fastapi)\b`),
	"javascript": regexp.MustCompile(`(?i)\b(?:javascript|typescript|node\.?js|deno)\b`),
	"java":       regexp.MustCompile(`(?i)\b(?:java|spring|springboot|hibernate)\b`),
	"golang":     regexp.MustCompile(`(?i)\b(?:go|golang)\b`),
	"rust":       regexp.MustCompile(`(?i)\b(?:rust|cargo)\b`),
	"ruby":       regexp.MustCompile(`(?i)\b(?:ruby|rails)\b`),
	"php":        regexp.MustCompile(`(?i)\b(?:php|laravel|symfony)\b`),
	"c++":        regexp.MustCompile(`(?i)\b(?:c\+\+|cpp)\b`),
	"c#":         regexp.MustCompile(`(?i)\b(?:c#|csharp|\.net|dotnet)\b`),
	"kotlin":     regexp.MustCompile(`(?i)\bkotlin\b`),
	"scala":      regexp.MustCompile(`(?i)\b(?:scala|akka)\b`),

	"react":   regexp.MustCompile(`(?i)\b(?:react|reactjs|next\.?js)\b`),
	"vue":     regexp.MustCompile(`(?i)\b(?:vue|vuejs|nuxt)\b`),
	"angular": regexp.MustCompile(`(?i)\bangular\b`),
	"svelte":  regexp.MustCompile(`(?i)\bsvelte\b`),

	"postgresql":    regexp.MustCompile(`(?i)\b(?:postgres|postgresql|psql)\b`),
	"mysql":         regexp.MustCompile(`(?i)\b(?:mysql|mariadb)\b`),
	"mongodb":       regexp.MustCompile(`(?i)\b(?:mongodb|mongo)\b`),
	"redis":         regexp.MustCompile(`(?i)\b(?:redis|valkey)\b`),
	"elasticsearch": regexp.MustCompile(`(?i)\b(?:elasticsearch|elastic)\b`),
	"cassandra":     regexp.MustCompile(`(?i)\bcassandra\b`),
	"dynamodb":      regexp.MustCompile(`(?i)\bdynamodb\b`),

	"aws":   regexp.MustCompile(`(?i)\b(?:aws|amazon web services|ec2|s3|lambda|rds|eks)\b`),
	"gcp":   regexp.MustCompile(`(?i)\b(?:gcp|google cloud|gke|bigquery)\b`),
	"azure": regexp.MustCompile(`(?i)\bazure\b`),

	"docker":         regexp.MustCompile(`(?i)\b(?:docker|dockerfile|containers?)\b`),
	"kubernetes":     regexp.MustCompile(`(?i)\b(?:kubernetes|k8s|kubectl|helm)\b`),
	"terraform":      regexp.MustCompile(`(?i)\bterraform\b`),
	"ansible":        regexp.MustCompile(`(?i)\bansible\b`),
	"jenkins":        regexp.MustCompile(`(?i)\bjenkins\b`),
	"github actions": regexp.MustCompile(`(?i)\bgithub actions\b`),

	"prometheus": regexp.MustCompile(`(?i)\bprometheus\b`),
	"grafana":    regexp.MustCompile(`(?i)\bgrafana\b`),
	"datadog":    regexp.MustCompile(`(?i)\bdatadog\b`),

	"kafka":    regexp.MustCompile(`(?i)\bkafka\b`),
	"rabbitmq": regexp.MustCompile(`(?i)\brabbitmq\b`),

	"git":           regexp.MustCompile(`(?i)\b(?:git|github|gitlab)\b`),
	"ci/cd":         regexp.MustCompile(`(?i)\b(?:ci/cd|cicd|continuous integration|continuous deployment)\b`),
	"microservices": regexp.MustCompile(`(?i)\bmicro-?services?\b`),
	"rest api":      regexp.MustCompile(`(?i)\b(?:rest|restful|rest api)\b`),
	"graphql":       regexp.MustCompile(`(?i)\bgraphql\b`),
}

// ExtractSkills pattern-matches known technologies in the title and
// description. Output is sorted for stable comparison.
func ExtractSkills(title, description string) []string {
	text := title + " " + description
	var found []string
	for name, pattern := range techPatterns {
		if pattern.MatchString(text) {
			found = append(found, name)
		}
	}
	sort.Strings(found)
	return found
}

// Titles that should never be bucketed into a technical category even when
// the posting name-drops technology.
var nonTechnicalTitles = []string{
	"sales", "account executive", "account manager", "business development",
	"marketing", "recruiter", "recruiting", "human resources",
	"finance", "legal", "compliance", "customer success",
	"product manager", "product owner", "project manager", "program manager",
	"business analyst", "data analyst",
}

// CategorizeRole buckets a job into frontend/backend/devops/data/ml/
// fullstack/general using keyword and skill signals.
func CategorizeRole(title, description string, skills []string) string {
	text := strings.ToLower(title + " " + description)
	titleLower := strings.ToLower(title)

	isEngManager := strings.Contains(titleLower, "engineering manager") ||
		strings.Contains(titleLower, "eng manager")
	if !isEngManager {
		for _, kw := range nonTechnicalTitles {
			if strings.Contains(titleLower, kw) {
				return "general"
			}
		}
	}

	if strings.Contains(titleLower, "designer") || strings.Contains(titleLower, "design lead") {
		if !strings.Contains(titleLower, "engineer") && !strings.Contains(titleLower, "developer") {
			return "general"
		}
	}

	has := func(names ...string) bool {
		for _, n := range names {
			for _, s := range skills {
				if s == n {
					return true
				}
			}
		}
		return false
	}
	boolScore := func(conds ...bool) int {
		n := 0
		for _, c := range conds {
			if c {
				n++
			}
		}
		return n
	}

	frontend := boolScore(
		has("react", "vue", "angular", "svelte"),
		strings.Contains(text, "frontend") || strings.Contains(text, "front-end"),
		strings.Contains(text, "ui") || strings.Contains(text, "ux"),
		strings.Contains(text, "css") || strings.Contains(text, "html"),
	)
	backend := boolScore(
		strings.Contains(text, "backend") || strings.Contains(text, "back-end"),
		strings.Contains(text, "api"),
		has("postgresql", "mysql", "mongodb"),
		has("python", "java", "golang", "ruby"),
	)
	devops := boolScore(
		strings.Contains(text, "devops") || strings.Contains(text, "sre"),
		has("docker", "kubernetes"),
		has("terraform", "ansible"),
		has("ci/cd"),
		has("aws", "gcp", "azure"),
	)
	data := boolScore(
		strings.Contains(text, "data engineer") || strings.Contains(text, "data scientist"),
		strings.Contains(text, "spark") || strings.Contains(text, "airflow"),
		strings.Contains(text, "etl") || strings.Contains(text, "pipeline"),
		strings.Contains(text, "bigquery") || strings.Contains(text, "redshift"),
	)
	ml := boolScore(
		strings.Contains(text, "machine learning") || strings.Contains(text, " ml "),
		strings.Contains(text, " ai ") || strings.Contains(text, "artificial intelligence"),
		strings.Contains(text, "pytorch") || strings.Contains(text, "tensorflow"),
		strings.Contains(text, "nlp") || strings.Contains(text, "computer vision"),
	)

	if backend >= 2 && frontend >= 2 {
		return "fullstack"
	}

	best, bestScore := "general", 0
	for _, c := range []struct {
		name  string
		score int
	}{
		{"frontend", frontend},
		{"backend", backend},
		{"devops", devops},
		{"data", data},
		{"ml", ml},
	} {
		if c.score > bestScore {
			best, bestScore = c.name, c.score
		}
	}
	return best
}
