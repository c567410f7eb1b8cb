package locale

import (
	"testing"
	"time"
)

func TestCountryForPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantOK   bool
	}{
		{name: "US", phone: "+16502530000", wantCode: "US", wantOK: true},
		{name: "UK", phone: "+442071234567", wantCode: "GB", wantOK: true},
		{name: "Israel", phone: "+972541234567", wantCode: "IL", wantOK: true},
		{name: "surrounding spaces", phone: "  +442071234567 ", wantCode: "GB", wantOK: true},
		{name: "unmapped region", phone: "+81312345678"},
		{name: "empty"},
		{name: "garbage", phone: "call me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CountryForPhone(tt.phone)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestLocationForPhone(t *testing.T) {
	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		phone    string
		wantName string
		wantHour int
	}{
		{phone: "+16502530000", wantName: "America/New_York", wantHour: 8},
		{phone: "+442071234567", wantName: "Europe/London", wantHour: 13},
		{phone: "", wantName: "UTC", wantHour: 12},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			loc := LocationForPhone(tt.phone)
			if loc.String() != tt.wantName {
				t.Errorf("location = %s, want %s", loc, tt.wantName)
			}
			if h := at.In(loc).Hour(); h != tt.wantHour {
				t.Errorf("hour = %d, want %d", h, tt.wantHour)
			}
		})
	}
}

func TestCountries_TimezonesLoad(t *testing.T) {
	for code, c := range Countries {
		if c.Code != code {
			t.Errorf("%s: code mismatch %s", code, c.Code)
		}
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			t.Errorf("%s: %v", code, err)
		}
	}
}
