package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Guests are overwhelmingly domestic; international numbers must already
// carry a +country prefix, which parses under any region.
var supportedRegions = []string{
	"IN",
}

// NormalizePhone formats a phone number to E.164. Returns the empty string
// when the number cannot be parsed for any supported region.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}
