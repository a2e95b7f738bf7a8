package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTracking(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Extraction
	}{
		{
			name: "provider and number",
			text: "Shipped via FedEx - Tracking: 1Z999AA1",
			want: Extraction{Provider: "fedex", TrackingNumber: "1Z999AA1", Found: true},
		},
		{
			name: "case insensitive",
			text: "SHIPPED VIA Aramex - TRACKING: SHIP-42",
			want: Extraction{Provider: "aramex", TrackingNumber: "SHIP-42", Found: true},
		},
		{
			name: "multi word provider",
			text: "shipped via Emirates Post - tracking: EE123456789AE",
			want: Extraction{Provider: "emirates post", TrackingNumber: "EE123456789AE", Found: true},
		},
		{
			name: "number only",
			text: "Parcel handed over. Tracking: XYZ-900",
			want: Extraction{TrackingNumber: "XYZ-900", Found: true},
		},
		{
			name: "loose whitespace around separator",
			text: "Shipped via DHL  -  Tracking:  JD0001",
			want: Extraction{Provider: "dhl", TrackingNumber: "JD0001", Found: true},
		},
		{
			name: "no marker",
			text: "Thanks for your purchase, the seller will ship soon",
			want: Extraction{},
		},
		{
			name: "empty text",
			text: "",
			want: Extraction{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTracking(tt.text))
		})
	}
}
