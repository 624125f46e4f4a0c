package normalize

import (
	"regexp"

	"github.com/spigell/hh-indexer/internal/posting"
)

type Classification struct {
	Seniority      posting.Seniority
	EmploymentType posting.EmploymentType
}

type seniorityRule struct {
	re    *regexp.Regexp
	level posting.Seniority
}

type employmentRule struct {
	re   *regexp.Regexp
	kind posting.EmploymentType
}

// Rules are checked in order and the first match wins.
var (
	seniorityRules = []seniorityRule{
		{regexp.MustCompile(`(?i)\bjunior\b|\bjr\.|\bentry[\s-]level\b`), posting.SeniorityJunior},
		{regexp.MustCompile(`(?i)\bsenior\b|\bsr\.`), posting.SenioritySenior},
		{regexp.MustCompile(`(?i)\bmid[\s-]level\b|\bmid[\s-]senior\b|\bintermediate\b|\bmiddle\b`), posting.SeniorityMid},
	}

	employmentRules = []employmentRule{
		{regexp.MustCompile(`(?i)\bfull[\s-]?time\b`), posting.EmploymentFullTime},
		{regexp.MustCompile(`(?i)\bpart[\s-]?time\b`), posting.EmploymentPartTime},
		{regexp.MustCompile(`(?i)\bcontract(?:or)?\b|\bfreelance\b`), posting.EmploymentContract},
	}

	remoteRe = regexp.MustCompile(`(?i)\bremote\b|\bhybrid\b|\bwork\s+from\s+home\b`)
)

// Classify guesses seniority and employment type from keyword markers. Mid
// level is only reported when the text says so explicitly.
func Classify(text string) Classification {
	var c Classification

	for _, rule := range seniorityRules {
		if rule.re.MatchString(text) {
			c.Seniority = rule.level
			break
		}
	}

	for _, rule := range employmentRules {
		if rule.re.MatchString(text) {
			c.EmploymentType = rule.kind
			break
		}
	}

	return c
}

// DetectRemote reports whether the text mentions remote, hybrid or
// work-from-home arrangements. No mention means on-site or unknown.
func DetectRemote(text string) bool {
	return remoteRe.MatchString(text)
}
