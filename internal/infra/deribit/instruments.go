package deribit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"delta_stream/internal/infra"
)

// FetchInstruments lists the active option instrument names for a currency
// from the exchange REST API.
func FetchInstruments(ctx context.Context, restURL, currency string) ([]string, error) {
	url := fmt.Sprintf("%s/public/get_instruments?currency=%s&kind=option&expired=false", restURL, currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments for %s: %w", currency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch instruments for %s: status %d", currency, resp.StatusCode)
	}

	var body struct {
		Result []struct {
			InstrumentName string `json:"instrument_name"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode instruments for %s: %w", currency, err)
	}

	names := make([]string, 0, len(body.Result))
	for _, r := range body.Result {
		if r.InstrumentName != "" {
			names = append(names, r.InstrumentName)
		}
	}
	return names, nil
}
