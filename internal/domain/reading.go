package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const CurrencyEUR = "EUR"

// PricePlaces is the number of fraction digits every recorded price carries.
const PricePlaces = 2

// Extraction is what a site extractor reads out of a product page.
type Extraction struct {
	Title string
	Price decimal.Decimal
}

// PriceReading is one observation for one site in one run. Failed readings
// carry no price.
type PriceReading struct {
	Site      SiteID
	URL       string
	Title     string
	Price     decimal.NullDecimal
	Currency  string
	Status    ReadingStatus
	Error     string
	Reason    string
	Timestamp time.Time
}

func NewOKReading(site SiteID, url string, ext Extraction, at time.Time) (PriceReading, error) {
	if ext.Price.IsNegative() {
		return PriceReading{}, &ParseError{Site: site, Reason: "negative amount", Err: ErrNegative}
	}
	return PriceReading{
		Site:      site,
		URL:       url,
		Title:     ext.Title,
		Price:     decimal.NewNullDecimal(ext.Price.Round(PricePlaces)),
		Currency:  CurrencyEUR,
		Status:    ReadingStatusOK,
		Timestamp: at,
	}, nil
}

// NewFailedReading classifies err into fetch_failed or parse_failed.
func NewFailedReading(site SiteID, url string, err error, at time.Time) PriceReading {
	r := PriceReading{
		Site:      site,
		URL:       url,
		Currency:  CurrencyEUR,
		Status:    ReadingStatusFetchFailed,
		Timestamp: at,
	}
	if err == nil {
		r.Reason = "unknown error"
		return r
	}
	r.Error = err.Error()

	var fe *FetchError
	var pe *ParseError
	switch {
	case errors.As(err, &pe):
		r.Status = ReadingStatusParseFailed
		r.Reason = pe.Reason
	case errors.Is(err, ErrParse):
		r.Status = ReadingStatusParseFailed
		r.Reason = "parse error"
	case errors.As(err, &fe):
		r.Reason = fe.Short()
	default:
		r.Reason = "fetch error"
	}
	return r
}

// PriceString renders the price with exactly two fraction digits, or "" when absent.
func (r PriceReading) PriceString() string {
	if !r.Price.Valid {
		return ""
	}
	return r.Price.Decimal.StringFixed(PricePlaces)
}
