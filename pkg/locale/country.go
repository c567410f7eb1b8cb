// Package locale maps a requester's phone number to the timezone their
// booking emails are written in.
package locale

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/nyaruka/phonenumbers"
)

const DefaultTimezone = "UTC"

type Country struct {
	Code     string // ISO 3166-1 alpha-2
	Name     string
	Timezone string // IANA identifier used when the region spans several zones
}

var Countries = map[string]Country{
	"US": {Code: "US", Name: "United States", Timezone: "America/New_York"},
	"CA": {Code: "CA", Name: "Canada", Timezone: "America/Toronto"},
	"GB": {Code: "GB", Name: "United Kingdom", Timezone: "Europe/London"},
	"IE": {Code: "IE", Name: "Ireland", Timezone: "Europe/Dublin"},
	"DE": {Code: "DE", Name: "Germany", Timezone: "Europe/Berlin"},
	"FR": {Code: "FR", Name: "France", Timezone: "Europe/Paris"},
	"NL": {Code: "NL", Name: "Netherlands", Timezone: "Europe/Amsterdam"},
	"IL": {Code: "IL", Name: "Israel", Timezone: "Asia/Jerusalem"},
	"IN": {Code: "IN", Name: "India", Timezone: "Asia/Kolkata"},
	"AU": {Code: "AU", Name: "Australia", Timezone: "Australia/Sydney"},
}

// CountryForPhone resolves an E.164 number to a known country.
func CountryForPhone(phone string) (Country, bool) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return Country{}, false
	}
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return Country{}, false
	}
	c, ok := Countries[phonenumbers.GetRegionCodeForNumber(num)]
	return c, ok
}

// LocationForPhone falls back to UTC for missing, unparseable or unmapped
// numbers.
func LocationForPhone(phone string) *time.Location {
	c, ok := CountryForPhone(phone)
	if !ok {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
