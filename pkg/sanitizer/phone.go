package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "NG"

var (
	fallbackRegions = []string{
		"NG",
		"GH",
		"GB",
		"US",
	}
)

// NormalizePhone returns phone in E.164 form, reading national numbers in
// region first. Unparseable input yields "".
func NormalizePhone(phone, region string) string {
	parsed, ok := parsePhone(phone, region)
	if !ok {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// IsValidPhone reports whether phone is a dialable number for its region.
func IsValidPhone(phone, region string) bool {
	parsed, ok := parsePhone(phone, region)
	return ok && phonenumbers.IsValidNumber(parsed)
}

func parsePhone(phone, region string) (*phonenumbers.PhoneNumber, bool) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, false
	}
	if region == "" {
		region = DefaultRegion
	}

	regions := append([]string{strings.ToUpper(region)}, fallbackRegions...)
	for _, r := range regions {
		parsed, err := phonenumbers.Parse(phone, r)
		if err == nil {
			return parsed, true
		}
	}
	return nil, false
}
