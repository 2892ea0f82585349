package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"leavehub/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// HolidaysInRange returns global holidays plus, when companyID is set, the
// company's own holidays, ordered by date.
func (s *Store) HolidaysInRange(ctx context.Context, companyID *string, start, end time.Time) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, date, name, company_id, created_at
    FROM public_holidays
    WHERE date BETWEEN $1 AND $2
      AND (company_id IS NULL OR company_id = $3)
    ORDER BY date
  `, start, end, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.CompanyID, &h.CreatedAt); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) WorkingSaturdaysInRange(ctx context.Context, start, end time.Time) ([]WorkingSaturday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, date, start_time, end_time, work_hours, created_at
    FROM working_saturdays
    WHERE date BETWEEN $1 AND $2
    ORDER BY date
  `, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saturdays []WorkingSaturday
	for rows.Next() {
		var ws WorkingSaturday
		if err := rows.Scan(&ws.ID, &ws.Date, &ws.StartTime, &ws.EndTime, &ws.WorkHours, &ws.CreatedAt); err != nil {
			return nil, err
		}
		saturdays = append(saturdays, ws)
	}
	return saturdays, rows.Err()
}

// Settings returns org-wide working-time settings, falling back to the
// documented defaults (7.5h day, 12:00-13:00 lunch) when no row exists.
func (s *Store) Settings(ctx context.Context) (Settings, error) {
	var settings Settings
	err := s.DB.QueryRow(ctx, `
    SELECT work_hours_per_day, lunch_start, lunch_end
    FROM org_settings
    WHERE id = 1
  `).Scan(&settings.WorkHoursPerDay, &settings.LunchStart, &settings.LunchEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s *Store) UpdateSettings(ctx context.Context, settings Settings) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO org_settings (id, work_hours_per_day, lunch_start, lunch_end, updated_at)
    VALUES (1, $1, $2, $3, now())
    ON CONFLICT (id) DO UPDATE
      SET work_hours_per_day = EXCLUDED.work_hours_per_day,
          lunch_start = EXCLUDED.lunch_start,
          lunch_end = EXCLUDED.lunch_end,
          updated_at = now()
  `, settings.WorkHoursPerDay, settings.LunchStart, settings.LunchEnd)
	return err
}

func (s *Store) ListHolidays(ctx context.Context, year int) ([]Holiday, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return s.HolidaysInRange(ctx, nil, start, end)
}

func (s *Store) CreateHoliday(ctx context.Context, date time.Time, name string, companyID *string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO public_holidays (date, name, company_id)
    VALUES ($1, $2, $3)
    RETURNING id
  `, date, name, companyID).Scan(&id)
	return id, err
}

func (s *Store) DeleteHoliday(ctx context.Context, holidayID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM public_holidays WHERE id = $1", holidayID)
	return err
}

func (s *Store) ListWorkingSaturdays(ctx context.Context, year int) ([]WorkingSaturday, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return s.WorkingSaturdaysInRange(ctx, start, end)
}

func (s *Store) CreateWorkingSaturday(ctx context.Context, date time.Time, startTime, endTime string, workHours decimal.Decimal) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO working_saturdays (date, start_time, end_time, work_hours)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, date, startTime, endTime, workHours).Scan(&id)
	return id, err
}

func (s *Store) DeleteWorkingSaturday(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM working_saturdays WHERE id = $1", id)
	return err
}
