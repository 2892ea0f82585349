package leave

import (
	"errors"
	"testing"
	"time"
)

func TestValidateShape(t *testing.T) {
	mon := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)

	cases := []struct {
		name    string
		start   time.Time
		end     time.Time
		slot    Slot
		wantErr bool
	}{
		{"full day range", mon, tue, Slot{Kind: SlotFullDay}, false},
		{"unknown kind", mon, mon, Slot{Kind: "sabbatical"}, true},
		{"inverted range", tue, mon, Slot{Kind: SlotFullDay}, true},
		{"range too long", mon, mon.AddDate(0, 0, MaxRangeDays+1), Slot{Kind: SlotFullDay}, true},
		{"half day single date", mon, mon, Slot{Kind: SlotHalfMorning}, false},
		{"half day multi date", mon, tue, Slot{Kind: SlotHalfAfternoon}, true},
		{"hourly with times", mon, mon, Slot{Kind: SlotHourly, HourlyStart: "10:00", HourlyEnd: "12:00"}, false},
		{"hourly multi date", mon, tue, Slot{Kind: SlotHourly, HourlyStart: "10:00", HourlyEnd: "12:00"}, true},
		{"hourly missing times", mon, mon, Slot{Kind: SlotHourly}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateShape(tc.start, tc.end, tc.slot)
			if tc.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("got %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
