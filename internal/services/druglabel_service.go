package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrDrugNotFound is returned when the label API has no match for the query
var ErrDrugNotFound = errors.New("no drug label found")

// DrugLabel is a trimmed view of one label record from the open drug-label API
type DrugLabel struct {
	BrandName   string          `json:"brand_name"`
	GenericName string          `json:"generic_name"`
	Purpose     []string        `json:"purpose,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// DrugLabelService queries the public drug-label API and normalizes results
// for the medication form's lookup box
type DrugLabelService struct {
	baseURL string
	client  *http.Client
}

// NewDrugLabelService creates a lookup client for the given API base URL
func NewDrugLabelService(baseURL string) *DrugLabelService {
	return &DrugLabelService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type drugLabelResponse struct {
	Results []struct {
		Purpose  []string `json:"purpose"`
		Warnings []string `json:"warnings"`
		OpenFDA  struct {
			BrandName   []string `json:"brand_name"`
			GenericName []string `json:"generic_name"`
		} `json:"openfda"`
	} `json:"results"`
}

// Lookup searches labels by brand or generic name and returns up to limit
// matches
func (s *DrugLabelService) Lookup(ctx context.Context, name string, limit int) ([]DrugLabel, error) {
	if limit <= 0 || limit > 25 {
		limit = 5
	}

	search := fmt.Sprintf(`openfda.brand_name:%q openfda.generic_name:%q`, name, name)
	endpoint := fmt.Sprintf("%s?search=%s&limit=%d", s.baseURL, url.QueryEscape(search), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build label request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("label request failed: %w", err)
	}
	defer resp.Body.Close()

	// The API answers 404 for empty result sets
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrDrugNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("label API returned %d: %s", resp.StatusCode, string(body))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read label response: %w", err)
	}

	var parsed drugLabelResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode label response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, ErrDrugNotFound
	}

	labels := make([]DrugLabel, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		label := DrugLabel{
			Purpose:  result.Purpose,
			Warnings: result.Warnings,
			Raw:      raw,
		}
		if len(result.OpenFDA.BrandName) > 0 {
			label.BrandName = result.OpenFDA.BrandName[0]
		}
		if len(result.OpenFDA.GenericName) > 0 {
			label.GenericName = result.OpenFDA.GenericName[0]
		}
		labels = append(labels, label)
	}

	return labels, nil
}
