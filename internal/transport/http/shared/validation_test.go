package shared

import (
	"testing"
	"time"
)

func TestParseDateFormats(t *testing.T) {
	if _, err := ParseDate("2026-03-02"); err != nil {
		t.Fatalf("plain date: %v", err)
	}
	if _, err := ParseDate("2026-03-02T10:00:00Z"); err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if _, err := ParseDate("02/03/2026"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	zero, err := ParseDate("")
	if err != nil || !zero.IsZero() {
		t.Fatalf("empty input: %v %v", zero, err)
	}
}

func TestValidatorCollectsAndSortsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("name", "", "name is required")
	v.Enum("status", "bogus", []string{"active", "inactive"}, "must be active or inactive")
	v.Add("name", "another problem")

	if !v.HasIssues() {
		t.Fatal("expected issues")
	}
	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3", len(issues))
	}
	if issues[0].Field != "name" || issues[2].Field != "status" {
		t.Fatalf("unexpected ordering: %+v", issues)
	}
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	v.DateOrder("startDate", start, "endDate", end)
	if !v.HasIssues() {
		t.Fatal("expected issues for inverted range")
	}

	v2 := NewValidator()
	v2.DateOrder("startDate", start, "endDate", start)
	if v2.HasIssues() {
		t.Fatal("equal dates should be accepted")
	}
}
