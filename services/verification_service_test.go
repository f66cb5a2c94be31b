package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"credentialing-api/models"
)

func TestDecideOutcome(t *testing.T) {
	cases := []struct {
		name             string
		verificationType string
		result           *LookupResult
		lookupErr        error
		wantStatus       string
		wantNotes        string
	}{
		{
			"lookup error surfaces for review",
			models.VerificationIdentityNumber,
			nil, errors.New("connection refused"),
			models.VerificationStatusRequiresReview, "lookup failed",
		},
		{
			"identity not found needs review",
			models.VerificationIdentityNumber,
			&LookupResult{Matched: false}, nil,
			models.VerificationStatusRequiresReview, "not found in registry",
		},
		{
			"active identity match verifies",
			models.VerificationIdentityNumber,
			&LookupResult{Matched: true, Status: RegistryStatusActive, Details: "JANE DOE, LCSW"}, nil,
			models.VerificationStatusVerified, "JANE DOE",
		},
		{
			"inactive registration fails",
			models.VerificationDEARegistration,
			&LookupResult{Matched: true, Status: RegistryStatusInactive, Details: "surrendered 2024"}, nil,
			models.VerificationStatusFailed, "registration inactive",
		},
		{
			"absence from exclusion list verifies",
			models.VerificationExclusionPrimary,
			&LookupResult{Matched: false}, nil,
			models.VerificationStatusVerified, "no exclusion record",
		},
		{
			"exclusion match fails",
			models.VerificationExclusionPrimary,
			&LookupResult{Matched: true, Status: RegistryStatusExcluded, Details: "excluded 2023-05-01"}, nil,
			models.VerificationStatusFailed, "exclusion match",
		},
		{
			"active exclusion record still fails",
			models.VerificationExclusionSecondary,
			&LookupResult{Matched: true, Status: RegistryStatusActive, Details: "listed"}, nil,
			models.VerificationStatusFailed, "exclusion match",
		},
		{
			"unrecognized status needs review",
			models.VerificationIdentityNumber,
			&LookupResult{Matched: true, Status: "glitched"}, nil,
			models.VerificationStatusRequiresReview, "unrecognized registry status",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome := DecideOutcome(tc.verificationType, tc.result, tc.lookupErr)
			if outcome.Status != tc.wantStatus {
				t.Fatalf("status: got %s, want %s", outcome.Status, tc.wantStatus)
			}
			if !strings.Contains(outcome.Notes, tc.wantNotes) {
				t.Fatalf("notes %q do not mention %q", outcome.Notes, tc.wantNotes)
			}
		})
	}
}

func TestIdentifierFor(t *testing.T) {
	npi := "1234567893"
	dea := "AB1234563"
	badNPI := "1234567890"

	provider := &models.Provider{FirstName: "Jane", LastName: "Doe", NPINumber: &npi, DEANumber: &dea}

	if id, err := identifierFor(provider, models.VerificationIdentityNumber); err != nil || id != npi {
		t.Fatalf("identity: got (%q, %v)", id, err)
	}
	if id, err := identifierFor(provider, models.VerificationDEARegistration); err != nil || id != dea {
		t.Fatalf("dea: got (%q, %v)", id, err)
	}
	if id, err := identifierFor(provider, models.VerificationExclusionPrimary); err != nil || id != npi {
		t.Fatalf("exclusion with npi: got (%q, %v)", id, err)
	}

	// Exclusion checks fall back to the display name when no identity number
	// is on file.
	noNumbers := &models.Provider{FirstName: "Jane", LastName: "Doe"}
	if id, err := identifierFor(noNumbers, models.VerificationExclusionSecondary); err != nil || id != "Jane Doe" {
		t.Fatalf("exclusion fallback: got (%q, %v)", id, err)
	}
	if _, err := identifierFor(noNumbers, models.VerificationIdentityNumber); err == nil {
		t.Fatal("identity check without a number must error")
	}

	invalid := &models.Provider{FirstName: "Jane", LastName: "Doe", NPINumber: &badNPI}
	if _, err := identifierFor(invalid, models.VerificationIdentityNumber); err == nil {
		t.Fatal("identity check with a bad check digit must error")
	}
}

func TestRunVerificationReplacesPriorOutcome(t *testing.T) {
	// A previously verified exclusion check re-runs against a registry that
	// now reports a match: the same row flips to failed and a critical alert
	// is created.
	t.Setenv("ALERT_MAIL_TO", "") // keep the critical-alert mail path quiet
	now := time.Now()
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `providers` WHERE provider_id = \\? AND delete_at IS NULL"),
			columns: []string{"provider_id", "first_name", "last_name", "npi_number"},
			rows:    [][]driver.Value{{int64(1), "Jane", "Doe", "1234567893"}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `provider_verifications` WHERE provider_id = \\? AND verification_type = \\?"),
			columns: []string{"verification_id", "provider_id", "verification_type", "status", "create_at"},
			rows: [][]driver.Value{
				{int64(5), int64(1), models.VerificationExclusionPrimary, models.VerificationStatusVerified, now},
			},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `provider_verifications` SET"),
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `provider_alerts`"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `provider_alerts`"),
			result:  scriptedResult{lastInsertID: 9, rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	lookup := func(ctx context.Context, verificationType, identifier string) (*LookupResult, error) {
		if verificationType != models.VerificationExclusionPrimary {
			t.Fatalf("unexpected verification type %s", verificationType)
		}
		if identifier != "1234567893" {
			t.Fatalf("unexpected identifier %s", identifier)
		}
		return &LookupResult{Matched: true, Status: RegistryStatusExcluded, Details: "excluded 2023-05-01", Source: "oig"}, nil
	}

	svc := NewVerificationService(db, lookup, NewAlertService(db))
	verification, err := svc.RunVerification(context.Background(), 1, models.VerificationExclusionPrimary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verification.Status != models.VerificationStatusFailed {
		t.Fatalf("status: got %s, want failed", verification.Status)
	}
	if verification.VerificationID != 5 {
		t.Fatalf("expected the existing row to be updated, got id %d", verification.VerificationID)
	}
	if verification.Source == nil || *verification.Source != "oig" {
		t.Fatalf("source: got %v", verification.Source)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRunVerificationRejectsUnknownType(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	svc := NewVerificationService(db, nil, NewAlertService(db))
	if _, err := svc.RunVerification(context.Background(), 1, "astrology_chart"); err == nil {
		t.Fatal("expected a validation error")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRegistryClientLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("identifier") {
		case "1234567893":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"matched":true,"status":"active","details":"JANE DOE, LCSW"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	t.Setenv("NPI_REGISTRY_URL", server.URL)
	client := NewRegistryClient(server.Client())

	result, err := client.Lookup(context.Background(), models.VerificationIdentityNumber, "1234567893")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Matched || result.Status != RegistryStatusActive {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Source == "" {
		t.Fatal("source must default to the registry host")
	}

	missing, err := client.Lookup(context.Background(), models.VerificationIdentityNumber, "9999999999")
	if err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
	if missing.Matched {
		t.Fatalf("404 means no record: %+v", missing)
	}
}

func TestRegistryClientUnconfiguredEndpoint(t *testing.T) {
	t.Setenv("DEA_REGISTRY_URL", "")
	client := NewRegistryClient(nil)
	if _, err := client.Lookup(context.Background(), models.VerificationDEARegistration, "AB1234563"); err == nil {
		t.Fatal("expected an error for a missing endpoint")
	}
}
