package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// dd/mm/yyyy or dd-mm-yyyy
	numericDateRegex = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	// yyyy-mm-dd
	isoDateRegex = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	// "15 de marzo de 2026" / "15 de marzo del 2026"
	spanishDateRegex = regexp.MustCompile(`\b(\d{1,2})\s+de\s+([a-z]+)\s+(?:del?\s+)?(\d{4})\b`)

	// $ 12.500,50 / USD 12,500.50 / 12500 pesos
	currencyPrefixRegex = regexp.MustCompile(`(?:\$|usd|clp|eur)\s*([\d][\d.,]*)`)
	currencySuffixRegex = regexp.MustCompile(`([\d][\d.,]*)\s*(?:usd|clp|eur|pesos|dolares)`)
)

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// Organization-name cues looked for in signature lines. Compared against
// accent-folded text.
var orgKeywords = []string{
	"constructora",
	"minera",
	"gobierno",
	"municipalidad",
	"ministerio",
	"corporacion",
	"compania",
	"empresa",
	"industrias",
	"inmobiliaria",
	"ltda",
	"s.a.",
	"spa",
	"corp",
}

// ExtractEntities pulls the optional structured fields out of the body
// text. Product matching is delegated to the catalog by the caller.
func ExtractEntities(body string) Entities {
	return Entities{
		Organization: extractOrganization(body),
		ContactEmail: extractContactEmail(body),
		Deadline:     extractDeadline(body),
		Amount:       extractAmount(body),
	}
}

// extractOrganization scans lines bottom-up, since organizations usually
// appear in the signature block, and returns the first line carrying an
// organization cue.
func extractOrganization(body string) string {
	lines := strings.Split(body, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || len(line) > 80 || strings.Contains(line, "@") {
			continue
		}
		folded := Fold(line)
		for _, keyword := range orgKeywords {
			if strings.Contains(folded, keyword) {
				return strings.Trim(line, " .,;:")
			}
		}
	}
	return ""
}

func extractContactEmail(body string) string {
	return emailRegex.FindString(body)
}

func extractDeadline(body string) *time.Time {
	if m := isoDateRegex.FindStringSubmatch(body); m != nil {
		return makeDate(m[3], m[2], m[1])
	}
	if m := numericDateRegex.FindStringSubmatch(body); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	if m := spanishDateRegex.FindStringSubmatch(Fold(body)); m != nil {
		month, ok := spanishMonths[m[2]]
		if ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			if validDate(day, int(month), year) {
				d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
				return &d
			}
		}
	}
	return nil
}

func makeDate(dayStr, monthStr, yearStr string) *time.Time {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	year, _ := strconv.Atoi(yearStr)
	if !validDate(day, month, year) {
		return nil
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &d
}

func validDate(day, month, year int) bool {
	return day >= 1 && day <= 31 && month >= 1 && month <= 12 && year >= 1970 && year <= 9999
}

func extractAmount(body string) *float64 {
	folded := Fold(body)
	m := currencyPrefixRegex.FindStringSubmatch(folded)
	if m == nil {
		m = currencySuffixRegex.FindStringSubmatch(folded)
	}
	if m == nil {
		return nil
	}
	value, ok := parseNumber(m[1])
	if !ok {
		return nil
	}
	return &value
}

// parseNumber handles both thousand-separator conventions: 12.500,50 and
// 12,500.50. A trailing group of one or two digits after the last
// separator is treated as decimals.
func parseNumber(s string) (float64, bool) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	decimalSep := byte(0)
	if lastDot > lastComma {
		decimalSep = '.'
	} else if lastComma > lastDot {
		decimalSep = ','
	}

	var intPart, fracPart string
	if decimalSep != 0 {
		idx := strings.LastIndexByte(s, decimalSep)
		head, tail := s[:idx], s[idx+1:]
		if len(tail) <= 2 {
			intPart, fracPart = head, tail
		} else {
			// Three or more digits: it was a thousands separator
			intPart = s
		}
	} else {
		intPart = s
	}

	intPart = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, intPart)
	if intPart == "" {
		return 0, false
	}

	numeric := intPart
	if fracPart != "" {
		numeric += "." + fracPart
	}
	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
