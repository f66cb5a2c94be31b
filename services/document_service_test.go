package services

import (
	"strings"
	"testing"
	"time"

	"credentialing-api/apperrors"
	"credentialing-api/models"
)

func TestComputeExpirationStatusThresholds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		daysOut  int
		want     ExpirationStatus
		wantDays int
	}{
		{"expired yesterday", -1, ExpirationExpired, -1},
		{"expired last month", -30, ExpirationExpired, -30},
		{"expires today", 0, ExpirationCritical, 0},
		{"critical upper bound", 7, ExpirationCritical, 7},
		{"warning lower bound", 8, ExpirationWarning, 8},
		{"warning upper bound", 30, ExpirationWarning, 30},
		{"notice lower bound", 31, ExpirationNotice, 31},
		{"notice upper bound", 60, ExpirationNotice, 60},
		{"outside all windows", 61, ExpirationNone, 61},
		{"far future", 365, ExpirationNone, 365},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expiresAt := now.AddDate(0, 0, tc.daysOut)
			status, days := ComputeExpirationStatus(expiresAt, now)
			if status != tc.want || days != tc.wantDays {
				t.Fatalf("got (%s, %d), want (%s, %d)", status, days, tc.want, tc.wantDays)
			}
		})
	}
}

func TestComputeExpirationStatusFloorsPartialDays(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// 7 days and 23 hours out is still inside the critical window.
	status, days := ComputeExpirationStatus(now.Add(7*24*time.Hour+23*time.Hour), now)
	if status != ExpirationCritical || days != 7 {
		t.Fatalf("7d23h out: got (%s, %d)", status, days)
	}

	// One hour past expiration floors to -1, not 0.
	status, days = ComputeExpirationStatus(now.Add(-time.Hour), now)
	if status != ExpirationExpired || days != -1 {
		t.Fatalf("1h past: got (%s, %d)", status, days)
	}
}

func TestValidateUpload(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(1, 0, 0)
	past := now.AddDate(0, 0, -1)

	valid := func() *UploadInput {
		return &UploadInput{
			ProviderID:       1,
			Data:             []byte("%PDF-1.4 license scan"),
			OriginalFilename: "license.pdf",
			MimeType:         "application/pdf",
			DocumentType:     models.DocTypeLicense,
			ExpiresAt:        &future,
		}
	}

	cases := []struct {
		name     string
		mutate   func(*UploadInput)
		wantKind apperrors.Kind
		wantMsg  string
	}{
		{"valid license", func(in *UploadInput) {}, 0, ""},
		{
			"transcript needs no expiration",
			func(in *UploadInput) {
				in.DocumentType = models.DocTypeTranscript
				in.ExpiresAt = nil
			},
			0, "",
		},
		{
			"unknown type",
			func(in *UploadInput) { in.DocumentType = "tax_return" },
			apperrors.KindValidation, "unknown document type",
		},
		{
			"disallowed mime",
			func(in *UploadInput) { in.MimeType = "application/x-msdownload" },
			apperrors.KindValidation, "not allowed",
		},
		{
			"oversized file",
			func(in *UploadInput) { in.Data = make([]byte, MaxDocumentSize+1) },
			apperrors.KindValidation, "exceeds",
		},
		{
			"empty file",
			func(in *UploadInput) { in.Data = nil },
			apperrors.KindValidation, "empty",
		},
		{
			"license without expiration",
			func(in *UploadInput) { in.ExpiresAt = nil },
			apperrors.KindValidation, "requires an expiration date",
		},
		{
			"license already expired",
			func(in *UploadInput) { in.ExpiresAt = &past },
			apperrors.KindValidation, "in the future",
		},
		{
			"insurance without expiration",
			func(in *UploadInput) {
				in.DocumentType = models.DocTypeLiabilityInsurance
				in.ExpiresAt = nil
			},
			apperrors.KindValidation, "requires an expiration date",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := valid()
			tc.mutate(input)

			err := ValidateUpload(input, now)
			if tc.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperrors.Is(err, tc.wantKind) {
				t.Fatalf("expected kind %v, got %v", tc.wantKind, err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestValidateUploadMaxSizeBoundary(t *testing.T) {
	now := time.Now()
	input := &UploadInput{
		Data:         make([]byte, MaxDocumentSize),
		MimeType:     "application/pdf",
		DocumentType: models.DocTypeTranscript,
	}
	if err := ValidateUpload(input, now); err != nil {
		t.Fatalf("exactly 10MiB must pass: %v", err)
	}
}
