package domain

import "fmt"

type SiteID string

const (
	SiteAmazon     SiteID = "amazon"
	SitePhoneclick SiteID = "phoneclick"
	SiteTeknozone  SiteID = "teknozone"
)

// siteOrder is the output order of every run, independent of completion order.
var siteOrder = []SiteID{SiteAmazon, SitePhoneclick, SiteTeknozone}

var siteHosts = map[SiteID]string{
	SiteAmazon:     "amazon.it",
	SitePhoneclick: "phoneclick.it",
	SiteTeknozone:  "teknozone.it",
}

// Sites returns the tracked sites in output order.
func Sites() []SiteID {
	out := make([]SiteID, len(siteOrder))
	copy(out, siteOrder)
	return out
}

func (s SiteID) Valid() bool {
	_, ok := siteHosts[s]
	return ok
}

// Host is the human-facing site name, e.g. "amazon.it".
func (s SiteID) Host() string {
	if h, ok := siteHosts[s]; ok {
		return h
	}
	return string(s)
}

// Index returns the position of s in the output order, or -1.
func (s SiteID) Index() int {
	for i, id := range siteOrder {
		if id == s {
			return i
		}
	}
	return -1
}

func ParseSiteID(v string) (SiteID, error) {
	s := SiteID(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSite, v)
	}
	return s, nil
}
