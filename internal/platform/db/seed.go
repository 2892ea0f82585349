package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"leavehub/internal/domain/auth"
	"leavehub/internal/platform/config"
)

// Seed is idempotent: it fills in roles, permissions, reference leave types
// and the admin user if they are missing, and never overwrites existing rows.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	for _, code := range auth.AllPermissions {
		if _, err := pool.Exec(ctx, `
      INSERT INTO permissions (code) VALUES ($1)
      ON CONFLICT (code) DO NOTHING
    `, code); err != nil {
			return fmt.Errorf("seed permission %s: %w", code, err)
		}
	}

	for role, perms := range auth.RolePermissions {
		var roleID string
		if err := pool.QueryRow(ctx, `
      INSERT INTO roles (name) VALUES ($1)
      ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id
    `, role).Scan(&roleID); err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
		for _, perm := range perms {
			if _, err := pool.Exec(ctx, `
        INSERT INTO role_permissions (role_id, permission_id)
        SELECT $1, id FROM permissions WHERE code = $2
        ON CONFLICT DO NOTHING
      `, roleID, perm); err != nil {
				return fmt.Errorf("seed role permission %s/%s: %w", role, perm, err)
			}
		}
	}

	if _, err := pool.Exec(ctx, `
    INSERT INTO companies (name) VALUES ($1)
    ON CONFLICT (name) DO NOTHING
  `, cfg.SeedCompanyName); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
    INSERT INTO org_settings (id) VALUES (1)
    ON CONFLICT (id) DO NOTHING
  `); err != nil {
		return err
	}

	if err := seedLeaveTypes(ctx, pool); err != nil {
		return err
	}

	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if err := seedAdminUser(ctx, pool, cfg); err != nil {
			return err
		}
	}

	return nil
}

type seedLeaveType struct {
	name           string
	code           string
	tracked        bool
	defaultDays    float64
	minTenureYears int
	advanceNotice  int
	carryOver      bool
	maxCarryOver   float64
	medCertDays    *float64
}

func seedLeaveTypes(ctx context.Context, pool *pgxpool.Pool) error {
	medCert := 3.0
	types := []seedLeaveType{
		{name: "Vacation", code: "vacation", tracked: true, defaultDays: 20, minTenureYears: 1, advanceNotice: 3, carryOver: true, maxCarryOver: 5},
		{name: "Sick Leave", code: "sick", tracked: true, defaultDays: 10, medCertDays: &medCert},
		{name: "Personal Leave", code: "personal", tracked: true, defaultDays: 3},
		{name: "Other", code: "other", tracked: false},
	}

	for _, t := range types {
		var typeID string
		if err := pool.QueryRow(ctx, `
      INSERT INTO leave_types (name, code, balance_tracked)
      VALUES ($1, $2, $3)
      ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
      RETURNING id
    `, t.name, t.code, t.tracked).Scan(&typeID); err != nil {
			return fmt.Errorf("seed leave type %s: %w", t.code, err)
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO leave_quota_settings
        (leave_type_id, default_days, min_tenure_years, advance_notice_days,
         carry_over_allowed, max_carry_over_days, medical_cert_threshold_days)
      VALUES ($1, $2, $3, $4, $5, $6, $7)
      ON CONFLICT (leave_type_id) DO NOTHING
    `, typeID, t.defaultDays, t.minTenureYears, t.advanceNotice, t.carryOver, t.maxCarryOver, t.medCertDays); err != nil {
			return fmt.Errorf("seed quota settings %s: %w", t.code, err)
		}
	}
	return nil
}

func seedAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE lower(email) = lower($1)", cfg.SeedAdminEmail).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, role_id)
    SELECT $1, $2, id FROM roles WHERE name = $3
  `, cfg.SeedAdminEmail, hash, auth.RoleAdmin); err != nil {
		return err
	}
	slog.Info("seeded admin user", "email", cfg.SeedAdminEmail)
	return nil
}
