package extractor

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"price-tracker/internal/domain"
)

var (
	errNoAmount      = errors.New("no amount")
	errAmbiguous     = errors.New("more than one amount")
	errBadGrouping   = errors.New("bad thousands grouping")
	errTooManyDigits = errors.New("more than two fraction digits")
)

// amountRe matches a run of digits joined by dots or commas, e.g. "1.234,56".
var amountRe = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// rangeRe matches two amounts joined by a range marker: "599,00 € - 699,00 €",
// "€ 599 – € 699" or "da € 599,00 a € 699,00". The right-hand side must be a
// price with decimals so "649,90 € - 20%" is not a range.
var rangeRe = regexp.MustCompile(`(?i)\d\s*€?\s*[-–—]\s*€?\s*\d+(?:[.,]\d{3})*[.,]\d{2}\b|\bda\s+€?\s*\d[\d.,]*\s*€?\s+a\s+€?\s*\d`)

func isRange(text string) bool {
	return rangeRe.MatchString(cleanText(text))
}

var spaceReplacer = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "&nbsp;", " ")

func cleanText(s string) string {
	return strings.TrimSpace(spaceReplacer.Replace(s))
}

// amount is a normalized price candidate found in page text.
type amount struct {
	value       decimal.Decimal
	hasFraction bool
}

// normalizeAmount converts an Italian-locale amount token into a decimal:
// "." groups thousands and "," separates decimals. A single "." followed by
// one or two digits is read as a decimal point ("799.00").
func normalizeAmount(tok string) (amount, error) {
	intPart, frac := tok, ""
	thousandsSep := "."

	lastComma := strings.LastIndex(tok, ",")
	lastDot := strings.LastIndex(tok, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			intPart, frac = tok[:lastComma], tok[lastComma+1:]
		} else {
			intPart, frac = tok[:lastDot], tok[lastDot+1:]
			thousandsSep = ","
		}
	case lastComma >= 0:
		if strings.Count(tok, ",") > 1 {
			return amount{}, errBadGrouping
		}
		intPart, frac = tok[:lastComma], tok[lastComma+1:]
	case lastDot >= 0:
		if strings.Count(tok, ".") == 1 && len(tok)-lastDot-1 <= domain.PricePlaces {
			intPart, frac = tok[:lastDot], tok[lastDot+1:]
		}
	}

	if strings.ContainsAny(frac, ".,") {
		return amount{}, errBadGrouping
	}
	if len(frac) > domain.PricePlaces {
		return amount{}, errTooManyDigits
	}
	if strings.Contains(intPart, thousandsSep) {
		groups := strings.Split(intPart, thousandsSep)
		if len(groups[0]) == 0 || len(groups[0]) > 3 {
			return amount{}, errBadGrouping
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return amount{}, errBadGrouping
			}
		}
		intPart = strings.Join(groups, "")
	}
	if strings.ContainsAny(intPart, ".,") {
		return amount{}, errBadGrouping
	}

	s := intPart
	if frac != "" {
		s += "." + frac
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return amount{}, err
	}
	if v.IsNegative() {
		return amount{}, domain.ErrNegative
	}
	return amount{value: v.Round(domain.PricePlaces), hasFraction: frac != ""}, nil
}

// findAmounts returns every valid amount in text, in order of appearance.
func findAmounts(text string) []amount {
	var out []amount
	for _, tok := range amountRe.FindAllString(cleanText(text), -1) {
		a, err := normalizeAmount(tok)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

// parseSingleAmount requires text to hold exactly one amount token.
func parseSingleAmount(text string) (decimal.Decimal, error) {
	toks := amountRe.FindAllString(cleanText(text), -1)
	switch len(toks) {
	case 0:
		return decimal.Decimal{}, errNoAmount
	case 1:
	default:
		return decimal.Decimal{}, errAmbiguous
	}
	a, err := normalizeAmount(toks[0])
	if err != nil {
		return decimal.Decimal{}, err
	}
	return a.value, nil
}
