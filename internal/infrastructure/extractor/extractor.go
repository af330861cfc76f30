package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"price-tracker/internal/application"
	"price-tracker/internal/domain"
)

var (
	_ application.Extractor = Amazon{}
	_ application.Extractor = Phoneclick{}
	_ application.Extractor = Teknozone{}
)

// For returns the extractor for site.
func For(site domain.SiteID) (application.Extractor, error) {
	switch site {
	case domain.SiteAmazon:
		return Amazon{}, nil
	case domain.SitePhoneclick:
		return Phoneclick{}, nil
	case domain.SiteTeknozone:
		return Teknozone{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSite, site)
	}
}

// All returns one extractor per tracked site.
func All() map[domain.SiteID]application.Extractor {
	out := make(map[domain.SiteID]application.Extractor, len(domain.Sites()))
	for _, s := range domain.Sites() {
		ex, _ := For(s)
		out[s] = ex
	}
	return out
}

func parseDocument(site domain.SiteID, html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &domain.ParseError{Site: site, Reason: "invalid html", Err: err}
	}
	return doc, nil
}

// firstText returns the trimmed text of the first non-empty match among selectors.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// ownText is the text of s's direct text children, without descendants.
func ownText(s *goquery.Selection) string {
	return s.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
		return goquery.NodeName(c) == "#text"
	}).Text()
}

var titleSplitRe = regexp.MustCompile(`[:|\-–]`)

func amountError(site domain.SiteID, err error) *domain.ParseError {
	switch err {
	case errNoAmount:
		return &domain.ParseError{Site: site, Reason: "no amount in price text", Err: err}
	case errAmbiguous:
		return &domain.ParseError{Site: site, Reason: "price shows a range", Err: err}
	default:
		return &domain.ParseError{Site: site, Reason: "invalid amount", Err: err}
	}
}
