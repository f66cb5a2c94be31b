package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"credentialing-api/apperrors"
	"credentialing-api/models"
)

// Registry record statuses reported by the external registries.
type RegistryStatus string

const (
	RegistryStatusActive   RegistryStatus = "active"
	RegistryStatusInactive RegistryStatus = "inactive"
	RegistryStatusExcluded RegistryStatus = "excluded"
)

// LookupResult is the structured outcome of a registry lookup. Matched=false
// means the registry holds no record for the identifier; a transport or
// protocol failure is returned as an error instead.
type LookupResult struct {
	Matched bool           `json:"matched"`
	Status  RegistryStatus `json:"status"`
	Details string         `json:"details"`
	Source  string         `json:"source"`
}

// RegistryLookupFunc abstracts the external registry call so the verification
// service can be exercised without network access.
type RegistryLookupFunc func(ctx context.Context, verificationType, identifier string) (*LookupResult, error)

// RegistryClient calls the configured registry endpoints over HTTP.
type RegistryClient struct {
	client    *http.Client
	endpoints map[string]string
	timeout   time.Duration
}

func NewRegistryClient(client *http.Client) *RegistryClient {
	timeout := 30 * time.Second
	if raw := os.Getenv("REGISTRY_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &RegistryClient{
		client:  client,
		timeout: timeout,
		endpoints: map[string]string{
			models.VerificationIdentityNumber:     os.Getenv("NPI_REGISTRY_URL"),
			models.VerificationDEARegistration:    os.Getenv("DEA_REGISTRY_URL"),
			models.VerificationExclusionPrimary:   os.Getenv("EXCLUSION_PRIMARY_URL"),
			models.VerificationExclusionSecondary: os.Getenv("EXCLUSION_SECONDARY_URL"),
		},
	}
}

// Lookup queries the registry for the given verification type. The request
// runs under a bounded timeout; callers must not hold the provider lock here.
func (c *RegistryClient) Lookup(ctx context.Context, verificationType, identifier string) (*LookupResult, error) {
	endpoint := c.endpoints[verificationType]
	if endpoint == "" {
		return nil, apperrors.Lookup(fmt.Sprintf("no registry endpoint configured for %s", verificationType), nil)
	}

	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, apperrors.Lookup("invalid registry endpoint", err)
	}
	query := reqURL.Query()
	query.Set("identifier", identifier)
	reqURL.RawQuery = query.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, apperrors.Lookup("failed to build registry request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Lookup("registry request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &LookupResult{Matched: false, Source: reqURL.Host}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Lookup(fmt.Sprintf("registry returned status %d", resp.StatusCode), nil)
	}

	var result LookupResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Lookup("failed to decode registry response", err)
	}
	if result.Source == "" {
		result.Source = reqURL.Host
	}

	return &result, nil
}
