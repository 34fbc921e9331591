// Package refdata fetches the regulatory reference table from
// Airtable. The table is display data: the analysis prompt carries its
// own embedded copy, so a fetch failure never blocks a batch.
package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"darkpattern-scanner/internal/utils"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Record is one Airtable row. Fields holds whatever columns the table
// has; lookups are tolerant of missing columns.
type Record struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// Field returns a column as a string, or "" when absent or non-string.
func (r Record) Field(name string) string {
	if v, ok := r.Fields[name].(string); ok {
		return v
	}
	return ""
}

// Client pages through an Airtable table.
type Client struct {
	apiKey  string
	baseID  string
	tableID string
	baseURL string
	http    *utils.HTTPClient
	logger  zerolog.Logger
}

// NewClient builds an Airtable client over the shared HTTP client.
func NewClient(apiKey, baseID, tableID string, httpClient *utils.HTTPClient, logger zerolog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseID:  baseID,
		tableID: tableID,
		baseURL: defaultBaseURL,
		http:    httpClient,
		logger:  logger.With().Str("component", "refdata").Logger(),
	}
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// FetchAll retrieves every record, following the offset cursor until
// the API stops returning one.
func (c *Client) FetchAll(ctx context.Context) ([]Record, error) {
	if c.apiKey == "" || c.baseID == "" || c.tableID == "" {
		return nil, fmt.Errorf("airtable credentials not configured")
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, c.tableID)
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var all []Record
	offset := ""
	for {
		url := endpoint
		if offset != "" {
			url = utils.BuildURL(endpoint, map[string]string{"offset": offset})
		}

		resp, err := c.http.Get(ctx, url, headers)
		if err != nil {
			return nil, fmt.Errorf("fetching airtable page: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading airtable response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("airtable returned HTTP %d", resp.StatusCode)
		}

		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding airtable response: %w", err)
		}

		all = append(all, page.Records...)
		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}

	c.logger.Info().Int("records", len(all)).Msg("Reference table fetched")
	return all, nil
}
