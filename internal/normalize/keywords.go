package normalize

import (
	"regexp"
	"strings"

	"github.com/spigell/hh-indexer/internal/tokenize"
)

const (
	MaxKeywords   = 30
	maxPhraseSize = 3
)

var (
	// "Go" written as a name inside a sentence, or after a comma, colon or
	// slash: "Stack: Go", "Python/Go", "Senior Go Engineer".
	goNameRe = regexp.MustCompile(`(?:[^.!?\s]\s+|[,:;(/]\s*)(?:Go|GO)\b`)
	// "go" next to a word that only makes sense for the language.
	goContextRe = regexp.MustCompile(`(?i)\bgo\s+(?:developers?|engineers?|programmers?|programming|backend|services?|microservices|experience|language|code|stack|modules|runtime)\b|\b(?:in|with|using|on)\s+go\s*(?:[,.;)]|and\b|$)`)
)

// vocabulary maps a term, written as space-joined tokens, to its canonical
// keyword. Aliases point at the canonical spelling.
var vocabulary = map[string]string{
	"go":            "go",
	"golang":        "go",
	"python":        "python",
	"java":          "java",
	"kotlin":        "kotlin",
	"scala":         "scala",
	"rust":          "rust",
	"c++":           "c++",
	"cpp":           "c++",
	"c#":            "c#",
	"dotnet":        ".net",
	"asp.net":       "asp.net",
	"ruby":          "ruby",
	"rails":         "ruby on rails",
	"ruby on rails": "ruby on rails",
	"php":           "php",
	"laravel":       "laravel",
	"symfony":       "symfony",
	"swift":         "swift",
	"elixir":        "elixir",
	"erlang":        "erlang",
	"haskell":       "haskell",
	"bash":          "bash",
	"powershell":    "powershell",

	"javascript":   "javascript",
	"js":           "javascript",
	"typescript":   "typescript",
	"ts":           "typescript",
	"react":        "react",
	"reactjs":      "react",
	"react.js":     "react",
	"react native": "react native",
	"vue":          "vue",
	"vuejs":        "vue",
	"vue.js":       "vue",
	"angular":      "angular",
	"svelte":       "svelte",
	"next.js":      "next.js",
	"nextjs":       "next.js",
	"node.js":      "node.js",
	"nodejs":       "node.js",
	"html":         "html",
	"css":          "css",
	"sass":         "sass",
	"tailwind":     "tailwind",
	"webpack":      "webpack",
	"graphql":      "graphql",
	"redux":        "redux",

	"django":              "django",
	"flask":               "flask",
	"fastapi":             "fastapi",
	"spring":              "spring",
	"spring boot":         "spring boot",
	"grpc":                "grpc",
	"rest api":            "rest",
	"restful":             "rest",
	"microservices":       "microservices",
	"distributed systems": "distributed systems",

	"sql":           "sql",
	"postgresql":    "postgresql",
	"postgres":      "postgresql",
	"mysql":         "mysql",
	"sqlite":        "sqlite",
	"mongodb":       "mongodb",
	"mongo":         "mongodb",
	"redis":         "redis",
	"cassandra":     "cassandra",
	"clickhouse":    "clickhouse",
	"elasticsearch": "elasticsearch",
	"kafka":         "kafka",
	"rabbitmq":      "rabbitmq",
	"nats":          "nats",

	"docker":         "docker",
	"kubernetes":     "kubernetes",
	"k8s":            "kubernetes",
	"helm":           "helm",
	"terraform":      "terraform",
	"ansible":        "ansible",
	"aws":            "aws",
	"gcp":            "gcp",
	"google cloud":   "gcp",
	"azure":          "azure",
	"linux":          "linux",
	"git":            "git",
	"ci cd":          "ci/cd",
	"cicd":           "ci/cd",
	"jenkins":        "jenkins",
	"github actions": "github actions",
	"gitlab":         "gitlab",
	"prometheus":     "prometheus",
	"grafana":        "grafana",
	"nginx":          "nginx",

	"machine learning": "machine learning",
	"ml":               "machine learning",
	"deep learning":    "deep learning",
	"nlp":              "nlp",
	"llm":              "llm",
	"computer vision":  "computer vision",
	"data science":     "data science",
	"pytorch":          "pytorch",
	"tensorflow":       "tensorflow",
	"pandas":           "pandas",
	"numpy":            "numpy",
	"spark":            "spark",
	"hadoop":           "hadoop",
	"airflow":          "airflow",
	"dbt":              "dbt",
	"snowflake":        "snowflake",
	"bigquery":         "bigquery",
	"tableau":          "tableau",

	"ios":        "ios",
	"android":    "android",
	"flutter":    "flutter",
	"figma":      "figma",
	"selenium":   "selenium",
	"cypress":    "cypress",
	"jest":       "jest",
	"agile":      "agile",
	"scrum":      "scrum",
	"jira":       "jira",
	"solidity":   "solidity",
	"blockchain": "blockchain",
}

// ExtractKeywords returns the known technology and skill terms mentioned in
// text, canonicalized, deduplicated and capped at MaxKeywords in first-seen
// order. Longer phrases win over their prefixes ("spring boot" over "spring").
func ExtractKeywords(text string) []string {
	tokens := tokenize.Tokens(text)
	keywords := make([]string, 0)
	seen := make(map[string]struct{})
	goLanguage := mentionsGo(text)

	for i := 0; i < len(tokens) && len(keywords) < MaxKeywords; {
		keyword, width := matchPhrase(tokens[i:])
		if width == 0 {
			i++
			continue
		}
		// the bare word "go" is ordinary English unless the text uses it as
		// the language name; "golang" always counts
		if keyword == "go" && tokens[i] == "go" && !goLanguage {
			i += width
			continue
		}
		i += width

		if _, ok := seen[keyword]; ok {
			continue
		}
		seen[keyword] = struct{}{}
		keywords = append(keywords, keyword)
	}

	return keywords
}

func matchPhrase(tokens []string) (string, int) {
	for size := maxPhraseSize; size > 0; size-- {
		if size > len(tokens) {
			continue
		}
		if keyword, ok := vocabulary[strings.Join(tokens[:size], " ")]; ok {
			return keyword, size
		}
	}
	return "", 0
}

func mentionsGo(text string) bool {
	return goNameRe.MatchString(text) || goContextRe.MatchString(text)
}
