/*
http.go - HTTP JSON provider

PURPOSE:
  The concrete provider most school portals can be adapted to: a JSON API
  with /grades and /homeworks endpoints. Authentication is a bearer API
  key.
*/
package syncfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const httpFetchTimeout = 60 * time.Second

// HTTPProvider fetches grades and homeworks from a JSON HTTP API.
type HTTPProvider struct {
	code    string
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider builds a provider for the API at baseURL.
func NewHTTPProvider(code, baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		code:    code,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: httpFetchTimeout},
	}
}

func (p *HTTPProvider) Code() string { return p.code }

// FetchGrades retrieves grades reported since the given time.
func (p *HTTPProvider) FetchGrades(ctx context.Context, since time.Time) ([]ExternalGrade, error) {
	endpoint := fmt.Sprintf("%s/grades?since=%s", p.baseURL,
		url.QueryEscape(since.Format(time.RFC3339)))
	var grades []ExternalGrade
	if err := p.getJSON(ctx, endpoint, &grades); err != nil {
		return nil, err
	}
	return grades, nil
}

// FetchHomeworks retrieves the current assignments.
func (p *HTTPProvider) FetchHomeworks(ctx context.Context) ([]ExternalHomework, error) {
	var homeworks []ExternalHomework
	if err := p.getJSON(ctx, p.baseURL+"/homeworks", &homeworks); err != nil {
		return nil, err
	}
	return homeworks, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
