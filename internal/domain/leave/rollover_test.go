package leave

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCarryOverAmount(t *testing.T) {
	quota := QuotaSettings{
		CarryOverAllowed: true,
		MaxCarryOverDays: decimal.NewFromInt(5),
	}

	cases := []struct {
		name      string
		remaining string
		quota     QuotaSettings
		want      string
	}{
		{"under cap", "3.5", quota, "3.5"},
		{"at cap", "5", quota, "5"},
		{"over cap", "12", quota, "5"},
		{"negative remaining", "-2", quota, "0"},
		{"carry disallowed", "12", QuotaSettings{MaxCarryOverDays: decimal.NewFromInt(5)}, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := carryOverAmount(decimal.RequireFromString(tc.remaining), tc.quota)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("got %s, want %s", got.String(), tc.want)
			}
		})
	}
}

func TestTenureYears(t *testing.T) {
	hire := time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		on   time.Time
		want int
	}{
		{"before first anniversary", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC), 0},
		{"on anniversary", time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), 1},
		{"mid third year", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), 2},
		{"before hire", time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tenureYears(hire, tc.on); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}
