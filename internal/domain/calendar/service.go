package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotSaturday = errors.New("date is not a Saturday")

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

// FactsForRange loads every calendar fact the duration calculators need for
// the inclusive date range. Holiday data is required; a lookup failure aborts
// the caller's operation rather than being papered over with guesses.
func (s *Service) FactsForRange(ctx context.Context, companyID *string, start, end time.Time) (Facts, error) {
	holidays, err := s.Store.HolidaysInRange(ctx, companyID, start, end)
	if err != nil {
		return Facts{}, fmt.Errorf("load holidays: %w", err)
	}
	saturdays, err := s.Store.WorkingSaturdaysInRange(ctx, start, end)
	if err != nil {
		return Facts{}, fmt.Errorf("load working saturdays: %w", err)
	}
	settings, err := s.Store.Settings(ctx)
	if err != nil {
		return Facts{}, fmt.Errorf("load org settings: %w", err)
	}

	facts := Facts{
		Holidays:         make(map[string]struct{}, len(holidays)),
		WorkingSaturdays: make(map[string]WorkingSaturday, len(saturdays)),
		Settings:         settings,
	}
	for _, h := range holidays {
		facts.Holidays[DateKey(h.Date)] = struct{}{}
	}
	for _, ws := range saturdays {
		facts.WorkingSaturdays[DateKey(ws.Date)] = ws
	}
	return facts, nil
}

func (s *Service) ListHolidays(ctx context.Context, year int) ([]Holiday, error) {
	return s.Store.ListHolidays(ctx, year)
}

func (s *Service) CreateHoliday(ctx context.Context, date time.Time, name string, companyID *string) (string, error) {
	return s.Store.CreateHoliday(ctx, date, name, companyID)
}

func (s *Service) DeleteHoliday(ctx context.Context, holidayID string) error {
	return s.Store.DeleteHoliday(ctx, holidayID)
}

func (s *Service) ListWorkingSaturdays(ctx context.Context, year int) ([]WorkingSaturday, error) {
	return s.Store.ListWorkingSaturdays(ctx, year)
}

func (s *Service) CreateWorkingSaturday(ctx context.Context, date time.Time, startTime, endTime string, workHours decimal.Decimal) (string, error) {
	if date.Weekday() != time.Saturday {
		return "", ErrNotSaturday
	}
	if !workHours.IsPositive() {
		return "", errors.New("work hours must be positive")
	}
	return s.Store.CreateWorkingSaturday(ctx, date, startTime, endTime, workHours)
}

func (s *Service) DeleteWorkingSaturday(ctx context.Context, id string) error {
	return s.Store.DeleteWorkingSaturday(ctx, id)
}

func (s *Service) Settings(ctx context.Context) (Settings, error) {
	return s.Store.Settings(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, settings Settings) error {
	if !settings.WorkHoursPerDay.IsPositive() {
		return errors.New("work hours per day must be positive")
	}
	return s.Store.UpdateSettings(ctx, settings)
}
