package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/hh-indexer/internal/posting"
)

const (
	currencySymbols = `[$€£¥₹₽]`
	currencyCodes   = `usd|eur|gbp|cad|aud|chf|inr|jpy|rub|rur`
	amount          = `\d{1,3}(?:[, \x{00a0}]\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`
	// Ranges without a currency marker need bounds this large so that year
	// spans and experience ranges are not read as salaries.
	minUnmarkedAmount = 1000
	minUnmarkedUpper  = 10000
	periodLookahead   = 40
	contextLookbehind = 60
)

var (
	salaryRangeRe = regexp.MustCompile(`(?i)(?:(?P<sym1>` + currencySymbols + `)\s?|\b(?P<code1>` + currencyCodes + `)\s?)?` +
		`(?P<lo>` + amount + `)\s?(?P<lok>k)?\b\s*(?:-|–|—|\bto\b)\s*` +
		`(?:(?P<sym2>` + currencySymbols + `)\s?|(?P<code2>` + currencyCodes + `)\s?)?` +
		`(?P<hi>` + amount + `)\s?(?P<hik>k)?\b` +
		`(?:\s*(?P<code3>` + currencyCodes + `)\b)?`)

	salarySingleRe = regexp.MustCompile(`(?i)(?:(?P<sym1>` + currencySymbols + `)\s?|\b(?P<code1>` + currencyCodes + `)\s?)` +
		`(?P<lo>` + amount + `)\s?(?P<lok>k)?\b`)

	// amounts followed by these words count things other than pay
	quantityRe = regexp.MustCompile(`(?i)^\s*(?:million|billion|trillion|mln|bln|mn|bn|m|employees|staff|people|users|customers|clients|members|downloads|installs|visitors|subscribers|followers)\b`)

	salaryContextRe = regexp.MustCompile(`(?i)\b(?:salary|salaries|pay|paid|compensation|wage|wages|rate|income|remuneration|earn|earnings|ctc|gross|net)\b|зарплат|оклад|доход`)

	symbolCurrency = map[string]string{
		"$": "USD",
		"€": "EUR",
		"£": "GBP",
		"¥": "JPY",
		"₹": "INR",
		"₽": "RUB",
	}

	periodPatterns = []struct {
		re     *regexp.Regexp
		period posting.SalaryPeriod
	}{
		{regexp.MustCompile(`(?i)^\W*(?:per\s+hour|an\s+hour|/\s*h(?:ou)?r\b|hourly)`), posting.PeriodHour},
		{regexp.MustCompile(`(?i)^\W*(?:per\s+day|a\s+day|/\s*day\b|daily)`), posting.PeriodDay},
		{regexp.MustCompile(`(?i)^\W*(?:per\s+week|a\s+week|/\s*w(?:ee)?k\b|weekly)`), posting.PeriodWeek},
		{regexp.MustCompile(`(?i)^\W*(?:per\s+month|a\s+month|/\s*mo(?:nth)?\b|monthly)`), posting.PeriodMonth},
		{regexp.MustCompile(`(?i)^\W*(?:per\s+(?:year|annum)|a\s+year|/\s*y(?:ea)?r\b|annually|yearly|p\.a\.)`), posting.PeriodYear},
	}
)

// ExtractSalary finds the first salary range in text. "$80K - $120K" and
// "$80,000 - $120,000" both yield min 80000 and max 120000 in USD. It returns
// nil when nothing salary-like is present.
func ExtractSalary(text string) *posting.Salary {
	if text == "" {
		return nil
	}

	for _, m := range salaryRangeRe.FindAllStringSubmatchIndex(text, -1) {
		g := groups(salaryRangeRe, text, m)

		lo, okLo := parseAmount(g["lo"])
		hi, okHi := parseAmount(g["hi"])
		if !okLo || !okHi {
			continue
		}

		hiK := g["hik"] != ""
		loK := g["lok"] != ""
		if hiK {
			hi *= 1000
		}
		// "$80 - 120K" means both bounds are in thousands.
		if loK || (hiK && lo < minUnmarkedAmount) {
			lo *= 1000
		}

		rest := text[m[1]:]
		if quantityRe.MatchString(rest) {
			continue
		}

		period := detectPeriod(rest)
		currency := firstCurrency(g["sym1"], g["code1"], g["sym2"], g["code2"], g["code3"])
		if currency == "" {
			if lo < minUnmarkedAmount || hi < minUnmarkedUpper {
				continue
			}
			// an unmarked range is a salary only when the text says so
			if period == posting.PeriodUnknown && !salaryContext(text, m[0]) {
				continue
			}
		}
		if lo > hi {
			lo, hi = hi, lo
		}

		return &posting.Salary{
			Min:      lo,
			Max:      hi,
			Currency: currency,
			Period:   period,
		}
	}

	for _, m := range salarySingleRe.FindAllStringSubmatchIndex(text, -1) {
		g := groups(salarySingleRe, text, m)
		value, ok := parseAmount(g["lo"])
		if !ok || value == 0 {
			continue
		}
		rest := text[m[1]:]
		if quantityRe.MatchString(rest) {
			continue
		}
		if g["lok"] != "" {
			value *= 1000
		}

		return &posting.Salary{
			Min:      value,
			Max:      value,
			Currency: firstCurrency(g["sym1"], g["code1"]),
			Period:   detectPeriod(rest),
		}
	}

	return nil
}

// salaryContext reports whether a pay word appears shortly before offset.
func salaryContext(text string, offset int) bool {
	start := max(0, offset-contextLookbehind)
	return salaryContextRe.MatchString(text[start:offset])
}

func groups(re *regexp.Regexp, text string, match []int) map[string]string {
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name == "" || match[2*i] < 0 {
			continue
		}
		out[name] = text[match[2*i]:match[2*i+1]]
	}
	return out
}

func parseAmount(raw string) (float64, bool) {
	cleaned := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(raw)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstCurrency(markers ...string) string {
	for _, marker := range markers {
		if marker == "" {
			continue
		}
		if code, ok := symbolCurrency[marker]; ok {
			return code
		}
		code := strings.ToUpper(marker)
		if code == "RUR" {
			code = "RUB"
		}
		return code
	}
	return ""
}

func detectPeriod(rest string) posting.SalaryPeriod {
	if len(rest) > periodLookahead {
		rest = rest[:periodLookahead]
	}
	for _, p := range periodPatterns {
		if p.re.MatchString(rest) {
			return p.period
		}
	}
	return posting.PeriodUnknown
}
