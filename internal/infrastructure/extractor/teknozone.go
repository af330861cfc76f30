package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"price-tracker/internal/domain"
)

var (
	euroPrefixRe = regexp.MustCompile(`€\s*(\d+(?:[.,]\d+)*)`)
	euroSuffixRe = regexp.MustCompile(`(\d+(?:[.,]\d+)*)\s*€`)
)

// Teknozone prints prices as "€ 799,00" inside strong or span elements.
// The first such element with a parsable amount wins.
type Teknozone struct{}

func (Teknozone) Extract(html string) (domain.Extraction, error) {
	doc, err := parseDocument(domain.SiteTeknozone, html)
	if err != nil {
		return domain.Extraction{}, err
	}
	title := firstText(doc, "h1.product-title", "h1")

	var (
		anchored bool
		ranged   bool
		found    bool
		price    decimal.Decimal
	)
	doc.Find("strong, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := cleanText(s.Text())
		if !strings.Contains(text, "€") {
			return true
		}
		anchored = true
		if isRange(text) {
			ranged = true
			return false
		}
		if p, ok := euroAmount(text); ok {
			found, price = true, p
			return false
		}
		return true
	})

	switch {
	case ranged:
		return domain.Extraction{}, amountError(domain.SiteTeknozone, errAmbiguous)
	case found:
		return domain.Extraction{Title: title, Price: price}, nil
	case anchored:
		return domain.Extraction{}, domain.NewParseError(domain.SiteTeknozone, "no amount in price text")
	default:
		return domain.Extraction{}, domain.NewParseError(domain.SiteTeknozone, "price anchor not found")
	}
}

func euroAmount(text string) (decimal.Decimal, bool) {
	for _, re := range []*regexp.Regexp{euroPrefixRe, euroSuffixRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		a, err := normalizeAmount(m[1])
		if err != nil || !a.hasFraction {
			continue
		}
		return a.value, true
	}
	return decimal.Decimal{}, false
}
