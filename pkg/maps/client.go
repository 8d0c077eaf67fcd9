// Package maps geocodes delivery addresses through the Google Places text
// search API.
package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
)

const (
	defaultBaseURL       = "https://places.googleapis.com/v1"
	defaultTimeout       = 10 * time.Second
	searchTextFieldMask  = "places.id,places.formattedAddress,places.location"
	errorBodyLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// LatLng is a coordinate as Google reports it.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is one text search match.
type Place struct {
	ID               string `json:"id"`
	FormattedAddress string `json:"formattedAddress"`
	Location         LatLng `json:"location"`
}

type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	regionCode   string
	languageCode string
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithRegionCodes biases results toward the first CLDR region given; the text
// search API accepts a single region.
func WithRegionCodes(codes ...string) Option {
	return func(c *Client) {
		for _, code := range codes {
			if code = strings.TrimSpace(code); code != "" {
				c.regionCode = strings.ToLower(code)
				return
			}
		}
	}
}

func WithLanguage(code string) Option {
	return func(c *Client) {
		c.languageCode = strings.TrimSpace(code)
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     key,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type searchTextRequest struct {
	TextQuery      string `json:"textQuery"`
	RegionCode     string `json:"regionCode,omitempty"`
	LanguageCode   string `json:"languageCode,omitempty"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
}

// SearchText returns up to limit places matching the free-form query, best
// match first.
func (c *Client) SearchText(ctx context.Context, query string, limit int) ([]Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search text is required")
	}

	payload, err := json.Marshal(searchTextRequest{
		TextQuery:      query,
		RegionCode:     c.regionCode,
		LanguageCode:   c.languageCode,
		MaxResultCount: limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal text search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build text search request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchTextFieldMask)

	var out struct {
		Places []Place `json:"places"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Places, nil
}

// Geocode resolves address text to the coordinate of the best match.
func (c *Client) Geocode(ctx context.Context, address string) (LatLng, error) {
	places, err := c.SearchText(ctx, address, 1)
	if err != nil {
		return LatLng{}, err
	}
	if len(places) == 0 {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeNotFound, "no place matches address")
	}
	return places[0].Location, nil
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "google maps request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		code := pkgerrors.CodeDependency
		if resp.StatusCode == http.StatusBadRequest {
			code = pkgerrors.CodeValidation
		}
		return pkgerrors.Wrap(code, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "google maps rejected request")
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode google maps response")
	}
	return nil
}
