package leavehandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leavehub/internal/domain/leave"
)

func TestFailFromErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bad shape", leave.ErrValidation), http.StatusBadRequest},
		{"insufficient balance", leave.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"forbidden", leave.ErrForbidden, http.StatusForbidden},
		{"not found", leave.ErrNotFound, http.StatusNotFound},
		{"conflict", fmt.Errorf("transition: %w", leave.ErrConflict), http.StatusConflict},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			failFromError(rec, tc.err, "req-1")
			if rec.Code != tc.want {
				t.Fatalf("got status %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestCreateRequestPayloadCarriesCertificateFile(t *testing.T) {
	body := `{
		"leaveTypeId": "lt-1",
		"startDate": "2026-03-02",
		"endDate": "2026-03-06",
		"medicalCertificate": true,
		"medicalCertificateFile": "uploads/cert-123.pdf"
	}`

	var payload createRequestPayload
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.MedicalCertificate {
		t.Fatal("expected medicalCertificate to be set")
	}
	if payload.MedicalCertificateFile != "uploads/cert-123.pdf" {
		t.Fatalf("got certificate file %q", payload.MedicalCertificateFile)
	}
}
