package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"price-tracker/internal/domain"
)

// Amazon reads the screen-reader price Amazon renders inside span.a-price.
type Amazon struct{}

func (Amazon) Extract(html string) (domain.Extraction, error) {
	doc, err := parseDocument(domain.SiteAmazon, html)
	if err != nil {
		return domain.Extraction{}, err
	}

	anchor := doc.Find("span.a-price > span.a-offscreen").First()
	if anchor.Length() == 0 {
		anchor = doc.Find("span.a-offscreen").First()
	}
	if anchor.Length() == 0 {
		return domain.Extraction{}, domain.NewParseError(domain.SiteAmazon, "price anchor not found")
	}

	price, err := parseSingleAmount(anchor.Text())
	if err != nil {
		return domain.Extraction{}, amountError(domain.SiteAmazon, err)
	}
	return domain.Extraction{Title: amazonTitle(doc), Price: price}, nil
}

func amazonTitle(doc *goquery.Document) string {
	if t := firstText(doc, "span#productTitle", "h1"); t != "" {
		return t
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if head := strings.TrimSpace(doc.Find("title").First().Text()); head != "" {
		return strings.TrimSpace(titleSplitRe.Split(head, 2)[0])
	}
	return ""
}
