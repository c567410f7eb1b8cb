package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegions are tried in order for numbers written without a country code.
var DefaultRegions = []string{
	"US",
	"GB",
}

func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	regions := DefaultRegions
	if strings.HasPrefix(phone, "+") {
		regions = []string{""}
	}

	for _, region := range regions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsPossibleNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return phone
}
