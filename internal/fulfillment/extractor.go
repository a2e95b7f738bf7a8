package fulfillment

import (
	"regexp"
	"strings"
)

// Extraction is the result of recovering tracking details from free text.
type Extraction struct {
	Provider       string
	TrackingNumber string
	Found          bool
}

// Free-text tracking patterns, tried in order. The first recovers both the
// provider and the number, the second only the number. Legacy records wrote
// these notes before structured tracking fields existed.
var (
	shippedViaPattern = regexp.MustCompile(`(?i)shipped\s+via\s+([a-z0-9 ]+?)\s*-\s*tracking\s*:\s*([a-z0-9-]+)`)
	trackingPattern   = regexp.MustCompile(`(?i)tracking\s*:\s*([a-z0-9-]+)`)
)

// ExtractTracking recovers a provider name and tracking number from
// free-text status notes. Malformed text yields a no-match result, never an
// error. Callers must not let the result overwrite structured fields that
// are already populated.
func ExtractTracking(text string) Extraction {
	if m := shippedViaPattern.FindStringSubmatch(text); m != nil {
		return Extraction{
			Provider:       strings.ToLower(strings.TrimSpace(m[1])),
			TrackingNumber: m[2],
			Found:          true,
		}
	}
	if m := trackingPattern.FindStringSubmatch(text); m != nil {
		return Extraction{TrackingNumber: m[1], Found: true}
	}
	return Extraction{}
}
