/*
api.go - HTTP backend for the hosted spreadsheet service

PURPOSE:
  Talks to the spreadsheet service's values REST API:

    GET {base}/{sheet}/values/{range}
    PUT {base}/{sheet}/values/{cell}?valueInputOption=RAW

  Responses are JSON with a "values" grid of strings. Non-2xx responses
  become RemoteError so the client layer can classify them.

AUTH:
  A static bearer token or an API key query parameter. Obtaining the
  credential (service account flows etc.) is the operator's problem;
  this backend just attaches what it is given.

SEE ALSO:
  - client.go: retry/breaker wrapping
  - fake.go: in-memory stand-in for tests and dev
*/
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBase is the hosted spreadsheet values endpoint.
const DefaultAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"

// API is the HTTP Backend implementation.
type API struct {
	base   string
	token  string // bearer token, may be empty
	apiKey string // query-param key, may be empty
	http   *http.Client
}

// APIConfig configures the HTTP backend.
type APIConfig struct {
	Base   string
	Token  string
	APIKey string
	// Timeout bounds a single HTTP exchange. Retries are handled a layer
	// up, so keep this short.
	Timeout time.Duration
}

// NewAPI creates the HTTP backend.
func NewAPI(cfg APIConfig) *API {
	if cfg.Base == "" {
		cfg.Base = DefaultAPIBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &API{
		base:   cfg.Base,
		token:  cfg.Token,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

// ReadRange implements Backend.
func (a *API) ReadRange(ctx context.Context, sheet, a1Range string) ([][]string, error) {
	u := fmt.Sprintf("%s/%s/values/%s", a.base, url.PathEscape(sheet), url.PathEscape(a1Range))
	body, err := a.roundTrip(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decoding values response: %w", err)
	}
	return vr.Values, nil
}

// WriteCell implements Backend.
func (a *API) WriteCell(ctx context.Context, sheet, cell, value string) error {
	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", a.base, url.PathEscape(sheet), url.PathEscape(cell))
	payload, err := json.Marshal(valueRange{Range: cell, Values: [][]string{{value}}})
	if err != nil {
		return err
	}
	_, err = a.roundTrip(ctx, http.MethodPut, u, payload)
	return err
}

func (a *API) roundTrip(ctx context.Context, method, u string, body []byte) ([]byte, error) {
	if a.apiKey != "" {
		sep := "?"
		if strings.ContainsRune(u, '?') {
			sep = "&"
		}
		u += sep + "key=" + url.QueryEscape(a.apiKey)
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		// Transport-level failures look like a 503 to the retry layer.
		return nil, &RemoteError{Code: http.StatusServiceUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &RemoteError{Code: http.StatusServiceUnavailable, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{
			Code:    resp.StatusCode,
			Message: http.StatusText(resp.StatusCode) + ": " + truncate(string(data), 200),
		}
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (" + strconv.Itoa(len(s)) + " bytes)"
}
