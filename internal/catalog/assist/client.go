package assist

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"transferscan/internal/catalog"
)

// Client implements catalog.Directory against an assist.org-style
// transfer-agreement catalog API.
type Client struct {
	client         *resty.Client
	baseURL        string
	academicYearID int
	categoryCode   string
}

// Config holds configuration for the catalog client.
type Config struct {
	BaseURL        string
	AcademicYearID int
	CategoryCode   string
	Timeout        time.Duration
	UserAgent      string
}

// NewClient creates a new catalog client.
// Parameters:
//   - cfg: upstream configuration including base URL and academic year.
//
// Returns:
//   - *Client: initialized catalog client.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	// Set timeout to prevent hanging requests
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	categoryCode := cfg.CategoryCode
	if categoryCode == "" {
		categoryCode = "major"
	}

	return &Client{
		client:         client,
		baseURL:        cfg.BaseURL,
		academicYearID: cfg.AcademicYearID,
		categoryCode:   categoryCode,
	}
}

// Institutions lists every institution in the catalog.
func (c *Client) Institutions(ctx context.Context) ([]catalog.Institution, error) {
	var institutions []catalog.Institution
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&institutions).
		Get(c.baseURL + "/institutions")

	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("institutions listing returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return institutions, nil
}

// Agreements lists the partner institutions holding an agreement with the
// given receiving institution.
func (c *Client) Agreements(ctx context.Context, receivingID int) ([]catalog.Agreement, error) {
	var agreements []catalog.Agreement
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&agreements).
		Get(fmt.Sprintf("%s/institutions/%d/agreements", c.baseURL, receivingID))

	if err != nil {
		return nil, fmt.Errorf("failed to list agreements for institution %d: %w", receivingID, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("agreements listing returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return agreements, nil
}

// majorReportsResponse is the wire shape of the major-agreement listing.
type majorReportsResponse struct {
	Reports []catalog.Report `json:"reports"`
}

// MajorReports lists the major-agreement records for one
// (receiving, sending) institution pair, filtered to the configured
// academic year and category.
func (c *Client) MajorReports(ctx context.Context, receivingID, sendingID int) ([]catalog.Report, error) {
	var result majorReportsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"receivingInstitutionId": strconv.Itoa(receivingID),
			"sendingInstitutionId":   strconv.Itoa(sendingID),
			"academicYearId":         strconv.Itoa(c.academicYearID),
			"categoryCode":           c.categoryCode,
		}).
		SetResult(&result).
		Get(c.baseURL + "/agreements")

	if err != nil {
		return nil, fmt.Errorf("failed to list major agreements for pair (%d, %d): %w", receivingID, sendingID, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("major agreements listing returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return result.Reports, nil
}
