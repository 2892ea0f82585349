package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type Holiday struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	CompanyID *string   `json:"companyId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkingSaturday marks an otherwise-off Saturday as a partial working day.
// WorkHours is the resulting work-hour count between StartTime and EndTime.
type WorkingSaturday struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	StartTime string          `json:"startTime"`
	EndTime   string          `json:"endTime"`
	WorkHours decimal.Decimal `json:"workHours"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Settings struct {
	WorkHoursPerDay decimal.Decimal `json:"workHoursPerDay"`
	LunchStart      string          `json:"lunchStart"`
	LunchEnd        string          `json:"lunchEnd"`
}

func DefaultSettings() Settings {
	return Settings{
		WorkHoursPerDay: decimal.NewFromFloat(7.5),
		LunchStart:      "12:00",
		LunchEnd:        "13:00",
	}
}

// Facts is the calendar snapshot for one date range, as consumed by the
// duration and year-split calculators. Keys are YYYY-MM-DD strings so lookups
// ignore time-of-day and timezone offsets on the input dates.
type Facts struct {
	Holidays         map[string]struct{}
	WorkingSaturdays map[string]WorkingSaturday
	Settings         Settings
}

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func (f Facts) IsHoliday(date time.Time) bool {
	_, ok := f.Holidays[DateKey(date)]
	return ok
}

func (f Facts) WorkingSaturday(date time.Time) (WorkingSaturday, bool) {
	ws, ok := f.WorkingSaturdays[DateKey(date)]
	return ws, ok
}
