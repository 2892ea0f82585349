package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"leavehub/internal/domain/calendar"
)

const clockLayout = "15:04"

var (
	one        = decimal.NewFromInt(1)
	half       = decimal.NewFromInt(1).Div(decimal.NewFromInt(2))
	minPerHour = decimal.NewFromInt(60)
)

// dayPortion is the single per-date contribution rule shared by Duration and
// SplitByYear. Keeping both calculators on this one closure is what makes the
// sum invariant hold: a holiday contributes 0, a Sunday contributes 0, a
// Saturday contributes workHours/workHoursPerDay only when explicitly marked
// as working, and Mon-Fri contributes exactly 1.
func dayPortion(date time.Time, facts calendar.Facts) decimal.Decimal {
	if facts.IsHoliday(date) {
		return decimal.Zero
	}
	switch date.Weekday() {
	case time.Sunday:
		return decimal.Zero
	case time.Saturday:
		ws, ok := facts.WorkingSaturday(date)
		if !ok || !facts.Settings.WorkHoursPerDay.IsPositive() {
			return decimal.Zero
		}
		return ws.WorkHours.Div(facts.Settings.WorkHoursPerDay)
	default:
		return one
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Duration returns the decimal day cost of a request. Day-based slots walk
// the range date by date; the half-day multiplier applies only when the range
// is exactly one calendar date (multi-day half-day slots are rejected during
// validation, not here). Hourly slots are computed from clock times instead.
// The result is rounded to 2 decimal places.
func Duration(start, end time.Time, slot Slot, facts calendar.Facts) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	if slot.Kind == SlotHourly {
		return HourlyDuration(slot, facts)
	}

	first, last := dateOnly(start), dateOnly(end)
	total := decimal.Zero
	for date := first; !date.After(last); date = date.AddDate(0, 0, 1) {
		total = total.Add(dayPortion(date, facts))
	}
	if slot.Kind.HalfDay() && first.Equal(last) {
		total = total.Mul(half)
	}
	return total.Round(2), nil
}

// SplitByYear buckets the same per-date contributions by calendar year,
// rounding each bucket independently. Zero buckets are dropped, but a range
// whose total survives rounding always yields at least one split: when every
// per-year bucket rounds away, the whole rounded total lands in the start
// year. The ledger reserves and refunds through split rows only, so a
// positive-amount request with no splits would never give its days back.
func SplitByYear(start, end time.Time, slot Slot, facts calendar.Facts) ([]YearSplit, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	if slot.Kind == SlotHourly {
		amount, err := HourlyDuration(slot, facts)
		if err != nil {
			return nil, err
		}
		return []YearSplit{{Year: start.Year(), Amount: amount}}, nil
	}

	first, last := dateOnly(start), dateOnly(end)
	buckets := make(map[int]decimal.Decimal)
	var years []int
	for date := first; !date.After(last); date = date.AddDate(0, 0, 1) {
		year := date.Year()
		if _, seen := buckets[year]; !seen {
			years = append(years, year)
		}
		buckets[year] = buckets[year].Add(dayPortion(date, facts))
	}

	halve := slot.Kind.HalfDay() && first.Equal(last)
	total := decimal.Zero
	splits := make([]YearSplit, 0, len(years))
	for _, year := range years {
		amount := buckets[year]
		if halve {
			amount = amount.Mul(half)
		}
		total = total.Add(amount)
		amount = amount.Round(2)
		if amount.IsZero() {
			continue
		}
		splits = append(splits, YearSplit{Year: year, Amount: amount})
	}
	if len(splits) == 0 {
		if rounded := total.Round(2); rounded.IsPositive() {
			splits = append(splits, YearSplit{Year: first.Year(), Amount: rounded})
		}
	}
	return splits, nil
}

// HourlyDuration converts an hourly slot to day-equivalent units: elapsed
// minutes, minus any overlap with the organization lunch window, divided by
// the standard working day length.
func HourlyDuration(slot Slot, facts calendar.Facts) (decimal.Decimal, error) {
	startMin, err := parseClock(slot.HourlyStart)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid hourly start time", ErrValidation)
	}
	endMin, err := parseClock(slot.HourlyEnd)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid hourly end time", ErrValidation)
	}
	if endMin <= startMin {
		return decimal.Zero, fmt.Errorf("%w: hourly end time must be after start time", ErrValidation)
	}
	if !facts.Settings.WorkHoursPerDay.IsPositive() {
		return decimal.Zero, fmt.Errorf("work hours per day not configured")
	}

	lunchStart, lunchEnd := lunchWindow(facts.Settings)
	net := endMin - startMin - overlapMinutes(startMin, endMin, lunchStart, lunchEnd)
	if net <= 0 {
		return decimal.Zero, nil
	}

	hours := decimal.NewFromInt(int64(net)).Div(minPerHour)
	return hours.Div(facts.Settings.WorkHoursPerDay).Round(2), nil
}

func lunchWindow(settings calendar.Settings) (int, int) {
	start, errStart := parseClock(settings.LunchStart)
	end, errEnd := parseClock(settings.LunchEnd)
	if errStart != nil || errEnd != nil || end <= start {
		return 12 * 60, 13 * 60
	}
	return start, end
}

func overlapMinutes(aStart, aEnd, bStart, bEnd int) int {
	start := max(aStart, bStart)
	end := min(aEnd, bEnd)
	if end <= start {
		return 0
	}
	return end - start
}

func parseClock(value string) (int, error) {
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
