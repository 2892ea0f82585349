package leave

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"leavehub/internal/domain/calendar"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return parsed
}

func testFacts(holidays []string, saturdayHours map[string]string) calendar.Facts {
	facts := calendar.Facts{
		Holidays:         make(map[string]struct{}),
		WorkingSaturdays: make(map[string]calendar.WorkingSaturday),
		Settings:         calendar.DefaultSettings(),
	}
	for _, h := range holidays {
		facts.Holidays[h] = struct{}{}
	}
	for date, hours := range saturdayHours {
		facts.WorkingSaturdays[date] = calendar.WorkingSaturday{
			StartTime: "09:00",
			EndTime:   "12:00",
			WorkHours: decimal.RequireFromString(hours),
		}
	}
	return facts
}

func wantAmount(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("got %s, want %s", got.String(), want)
	}
}

func TestDurationSingleWeekday(t *testing.T) {
	// 2026-03-02 is a Monday.
	start := day(t, "2026-03-02")
	got, err := Duration(start, start, Slot{Kind: SlotFullDay}, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	wantAmount(t, got, "1")
}

func TestDurationSkipsWeekendsAndHolidays(t *testing.T) {
	// Friday 2026-03-06 through Tuesday 2026-03-10, with Monday a holiday.
	got, err := Duration(day(t, "2026-03-06"), day(t, "2026-03-10"),
		Slot{Kind: SlotFullDay}, testFacts([]string{"2026-03-09"}, nil))
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	wantAmount(t, got, "2") // Friday and Tuesday only
}

func TestDurationBareSaturdayIsZero(t *testing.T) {
	// 2026-03-07 is a Saturday with no working-Saturday entry.
	start := day(t, "2026-03-07")
	got, err := Duration(start, start, Slot{Kind: SlotFullDay}, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("got %s, want 0", got.String())
	}
}

func TestDurationWorkingSaturdayFraction(t *testing.T) {
	// A 3-hour Saturday against a 7.5-hour day is 0.4 of a day.
	start := day(t, "2026-03-07")
	facts := testFacts(nil, map[string]string{"2026-03-07": "3"})
	got, err := Duration(start, start, Slot{Kind: SlotFullDay}, facts)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	wantAmount(t, got, "0.4")
}

func TestDurationHolidayBeatsWorkingSaturday(t *testing.T) {
	start := day(t, "2026-03-07")
	facts := testFacts([]string{"2026-03-07"}, map[string]string{"2026-03-07": "3"})
	got, err := Duration(start, start, Slot{Kind: SlotFullDay}, facts)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("got %s, want 0", got.String())
	}
}

func TestDurationHalfDaySingleDate(t *testing.T) {
	start := day(t, "2026-03-02")
	got, err := Duration(start, start, Slot{Kind: SlotHalfMorning}, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	wantAmount(t, got, "0.5")
}

func TestDurationHalfDayMultiDateNotHalved(t *testing.T) {
	// The half multiplier applies only to single-date ranges. Multi-date
	// half-day requests are rejected upstream; the calculator itself counts
	// whole days.
	got, err := Duration(day(t, "2026-03-02"), day(t, "2026-03-03"),
		Slot{Kind: SlotHalfAfternoon}, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	wantAmount(t, got, "2")
}

func TestDurationHalfDayOnWorkingSaturday(t *testing.T) {
	start := day(t, "2026-03-07")
	facts := testFacts(nil, map[string]string{"2026-03-07": "3"})
	got, err := Duration(start, start, Slot{Kind: SlotHalfMorning}, facts)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	wantAmount(t, got, "0.2")
}

func TestDurationInvertedRange(t *testing.T) {
	_, err := Duration(day(t, "2026-03-03"), day(t, "2026-03-02"),
		Slot{Kind: SlotFullDay}, testFacts(nil, nil))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestHourlyDurationLunchOverlap(t *testing.T) {
	// 10:00-14:00 spans the full 12:00-13:00 lunch: 3 net hours over a
	// 7.5-hour day is 0.4.
	slot := Slot{Kind: SlotHourly, HourlyStart: "10:00", HourlyEnd: "14:00"}
	got, err := HourlyDuration(slot, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("HourlyDuration: %v", err)
	}
	wantAmount(t, got, "0.4")
}

func TestHourlyDurationNoLunchOverlap(t *testing.T) {
	slot := Slot{Kind: SlotHourly, HourlyStart: "14:00", HourlyEnd: "17:00"}
	got, err := HourlyDuration(slot, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("HourlyDuration: %v", err)
	}
	wantAmount(t, got, "0.4")
}

func TestHourlyDurationPartialLunchOverlap(t *testing.T) {
	// 11:00-12:30 overlaps lunch by 30 minutes: 1 net hour / 7.5 = 0.13.
	slot := Slot{Kind: SlotHourly, HourlyStart: "11:00", HourlyEnd: "12:30"}
	got, err := HourlyDuration(slot, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("HourlyDuration: %v", err)
	}
	wantAmount(t, got, "0.13")
}

func TestHourlyDurationEntirelyInsideLunch(t *testing.T) {
	slot := Slot{Kind: SlotHourly, HourlyStart: "12:00", HourlyEnd: "13:00"}
	got, err := HourlyDuration(slot, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("HourlyDuration: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("got %s, want 0", got.String())
	}
}

func TestHourlyDurationEndBeforeStart(t *testing.T) {
	slot := Slot{Kind: SlotHourly, HourlyStart: "14:00", HourlyEnd: "10:00"}
	_, err := HourlyDuration(slot, testFacts(nil, nil))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestHourlyDurationBadClock(t *testing.T) {
	slot := Slot{Kind: SlotHourly, HourlyStart: "25:61", HourlyEnd: "14:00"}
	_, err := HourlyDuration(slot, testFacts(nil, nil))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestSplitByYearDecemberJanuary(t *testing.T) {
	// Tuesday 2025-12-30 through Friday 2026-01-02: two weekdays land in
	// each year.
	splits, err := SplitByYear(day(t, "2025-12-30"), day(t, "2026-01-02"),
		Slot{Kind: SlotFullDay}, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("SplitByYear: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("got %d splits, want 2", len(splits))
	}
	if splits[0].Year != 2025 || splits[1].Year != 2026 {
		t.Fatalf("got years %d, %d", splits[0].Year, splits[1].Year)
	}
	wantAmount(t, splits[0].Amount, "2")
	wantAmount(t, splits[1].Amount, "2")
}

func TestSplitByYearDropsZeroBucket(t *testing.T) {
	// Wednesday 2026-12-30 through Saturday 2027-01-02 with New Year's Day a
	// holiday: the 2027 share is zero and no bucket is emitted for it.
	splits, err := SplitByYear(day(t, "2026-12-30"), day(t, "2027-01-02"),
		Slot{Kind: SlotFullDay}, testFacts([]string{"2027-01-01"}, nil))
	if err != nil {
		t.Fatalf("SplitByYear: %v", err)
	}
	if len(splits) != 1 {
		t.Fatalf("got %d splits, want 1", len(splits))
	}
	if splits[0].Year != 2026 {
		t.Fatalf("got year %d, want 2026", splits[0].Year)
	}
	wantAmount(t, splits[0].Amount, "2")
}

func TestSplitByYearTinyCrossYearAmountKeepsOneBucket(t *testing.T) {
	// Saturday 2026-12-26 through Saturday 2027-01-02, both scheduled as
	// 0.03-hour working Saturdays, every weekday in between a holiday. Each
	// year contributes 0.004 and rounds to zero on its own, but the total
	// rounds to 0.01; the whole amount must land in the start year so the
	// ledger still has a split row to reserve against and refund from.
	facts := testFacts(
		[]string{"2026-12-28", "2026-12-29", "2026-12-30", "2026-12-31", "2027-01-01"},
		map[string]string{"2026-12-26": "0.03", "2027-01-02": "0.03"},
	)
	start, end := day(t, "2026-12-26"), day(t, "2027-01-02")

	total, err := Duration(start, end, Slot{Kind: SlotFullDay}, facts)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	wantAmount(t, total, "0.01")

	splits, err := SplitByYear(start, end, Slot{Kind: SlotFullDay}, facts)
	if err != nil {
		t.Fatalf("SplitByYear: %v", err)
	}
	if len(splits) != 1 {
		t.Fatalf("got %d splits, want 1", len(splits))
	}
	if splits[0].Year != 2026 {
		t.Fatalf("got year %d, want 2026", splits[0].Year)
	}
	wantAmount(t, splits[0].Amount, "0.01")
}

func TestSplitByYearHourlySingleBucket(t *testing.T) {
	start := day(t, "2026-03-02")
	slot := Slot{Kind: SlotHourly, HourlyStart: "10:00", HourlyEnd: "14:00"}
	splits, err := SplitByYear(start, start, slot, testFacts(nil, nil))
	if err != nil {
		t.Fatalf("SplitByYear: %v", err)
	}
	if len(splits) != 1 || splits[0].Year != 2026 {
		t.Fatalf("got %+v, want one 2026 bucket", splits)
	}
	wantAmount(t, splits[0].Amount, "0.4")
}

func TestSplitSumMatchesDuration(t *testing.T) {
	facts := testFacts(
		[]string{"2025-12-25", "2026-01-01"},
		map[string]string{"2026-01-10": "3"},
	)
	start, end := day(t, "2025-12-22"), day(t, "2026-01-12")
	total, err := Duration(start, end, Slot{Kind: SlotFullDay}, facts)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	splits, err := SplitByYear(start, end, Slot{Kind: SlotFullDay}, facts)
	if err != nil {
		t.Fatalf("SplitByYear: %v", err)
	}

	sum := decimal.Zero
	for _, split := range splits {
		if !split.Amount.IsPositive() {
			t.Fatalf("split for %d is not positive: %s", split.Year, split.Amount.String())
		}
		sum = sum.Add(split.Amount)
	}
	if !sum.Equal(total) {
		t.Fatalf("splits sum to %s, duration is %s", sum.String(), total.String())
	}
}
