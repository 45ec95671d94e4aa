// Package phone resolves the country a rented number belongs to.
// The registry key is never rewritten here; this is only used for reporting.
package phone

import (
	"strings"

	"github.com/biter777/countries"
	"github.com/ttacon/libphonenumber"
)

// Unknown is the region reported for numbers libphonenumber cannot place.
const Unknown = "??"

// Region returns the ISO 3166-1 alpha-2 region of number.
// Numbers without a leading plus are read as international.
func Region(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return Unknown
	}
	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}
	num, err := libphonenumber.Parse(number, "")
	if err != nil {
		return Unknown
	}
	region := libphonenumber.GetRegionCodeForNumber(num)
	if region == "" || region == "ZZ" {
		// shared calling codes (+1, +7) need a valid number to pick a region,
		// fall back to the main region of the calling code
		region = libphonenumber.GetRegionCodeForCountryCode(int(num.GetCountryCode()))
	}
	if region == "" || region == "ZZ" {
		return Unknown
	}
	return region
}

// CountryName is the English name of an alpha-2 region, or the region itself when unknown.
func CountryName(region string) string {
	if region == Unknown {
		return "Unknown"
	}
	country := countries.ByName(region)
	if country == countries.Unknown {
		return region
	}
	return country.String()
}
