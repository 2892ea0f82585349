package calendar

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFactsLookupsIgnoreTimeOfDay(t *testing.T) {
	facts := Facts{
		Holidays: map[string]struct{}{"2026-01-01": {}},
		WorkingSaturdays: map[string]WorkingSaturday{
			"2026-01-10": {WorkHours: decimal.NewFromInt(3)},
		},
		Settings: DefaultSettings(),
	}

	holiday := time.Date(2026, time.January, 1, 15, 30, 0, 0, time.FixedZone("X", 3600))
	if !facts.IsHoliday(holiday) {
		t.Fatal("expected holiday match regardless of time component")
	}
	if facts.IsHoliday(holiday.AddDate(0, 0, 1)) {
		t.Fatal("did not expect holiday on Jan 2")
	}

	saturday := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)
	if _, ok := facts.WorkingSaturday(saturday); !ok {
		t.Fatal("expected working saturday match")
	}
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()
	if !settings.WorkHoursPerDay.Equal(decimal.NewFromFloat(7.5)) {
		t.Fatalf("work hours = %s, want 7.5", settings.WorkHoursPerDay.String())
	}
	if settings.LunchStart != "12:00" || settings.LunchEnd != "13:00" {
		t.Fatalf("lunch window = %s-%s", settings.LunchStart, settings.LunchEnd)
	}
}
