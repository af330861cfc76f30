package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"price-tracker/internal/domain"
)

// singleItemCeiling: when one text holds several amounts (list price,
// discounted price, instalments), the last one under this value wins.
var singleItemCeiling = decimal.NewFromInt(1000)

// Phoneclick shows the current price in an <ins> element, with the struck
// list price next to it.
type Phoneclick struct{}

func (Phoneclick) Extract(html string) (domain.Extraction, error) {
	doc, err := parseDocument(domain.SitePhoneclick, html)
	if err != nil {
		return domain.Extraction{}, err
	}
	title := firstText(doc, "h1.caratteretitolo", "h1")

	if ins := doc.Find("ins").First(); ins.Length() > 0 {
		if isRange(ins.Text()) {
			return domain.Extraction{}, amountError(domain.SitePhoneclick, errAmbiguous)
		}
		if p, ok := pickAmount(ins.Text()); ok {
			return domain.Extraction{Title: title, Price: p}, nil
		}
	}

	// Fallback: the last parsable amount among text nodes carrying the euro
	// sign. A range in any of them fails the page.
	var (
		found  bool
		ranged bool
		price  decimal.Decimal
	)
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		text := ownText(s)
		if !strings.Contains(text, "€") {
			return
		}
		if isRange(text) {
			ranged = true
			return
		}
		if p, ok := pickAmount(text); ok {
			found, price = true, p
		}
	})
	switch {
	case ranged:
		return domain.Extraction{}, amountError(domain.SitePhoneclick, errAmbiguous)
	case found:
		return domain.Extraction{Title: title, Price: price}, nil
	default:
		return domain.Extraction{}, domain.NewParseError(domain.SitePhoneclick, "price anchor not found")
	}
}

// pickAmount considers only amounts written with decimals.
func pickAmount(text string) (decimal.Decimal, bool) {
	var cands []decimal.Decimal
	for _, a := range findAmounts(text) {
		if a.hasFraction {
			cands = append(cands, a.value)
		}
	}
	if len(cands) == 0 {
		return decimal.Decimal{}, false
	}
	for i := len(cands) - 1; i >= 0; i-- {
		if cands[i].LessThan(singleItemCeiling) {
			return cands[i], true
		}
	}
	return cands[len(cands)-1], true
}
