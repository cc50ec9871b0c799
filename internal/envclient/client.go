// Package envclient queries a remote travel environment over HTTP. Tables are
// served page by page as {"data": [...]}; an empty page ends a table.
package envclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ai-travel-planner/internal/poi"
)

const tokenAudience = "travel-environment"

type pageResponse[T any] struct {
	Data []T `json:"data"`
}

// Client is the HTTP implementation of poi.Environment.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	pageSize   int
}

// NewClient creates a client for the environment at baseURL. key is an
// "id:hexsecret" pair; when empty requests are sent unauthenticated.
func NewClient(baseURL, key string, pageSize int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		pageSize:   pageSize,
	}
}

func (c *Client) Attractions(f poi.Filter) poi.PageFunc[poi.Attraction] {
	return fetchPages[poi.Attraction](c, poi.CategoryAttraction, f)
}

func (c *Client) Restaurants(f poi.Filter) poi.PageFunc[poi.Restaurant] {
	return fetchPages[poi.Restaurant](c, poi.CategoryRestaurant, f)
}

func (c *Client) Accommodations(f poi.Filter) poi.PageFunc[poi.Accommodation] {
	return fetchPages[poi.Accommodation](c, poi.CategoryAccommodation, f)
}

func (c *Client) Intercity(kind poi.Category, f poi.Filter) poi.PageFunc[poi.IntercityOption] {
	return fetchPages[poi.IntercityOption](c, kind, f)
}

func fetchPages[T any](c *Client, category poi.Category, f poi.Filter) poi.PageFunc[T] {
	return func(ctx context.Context, page int) ([]T, error) {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		if c.pageSize > 0 {
			q.Set("page_size", strconv.Itoa(c.pageSize))
		}
		if f.City != "" {
			q.Set("city", f.City)
		}
		if f.From != "" {
			q.Set("from", f.From)
		}
		if f.To != "" {
			q.Set("to", f.To)
		}
		endpoint := fmt.Sprintf("%s/api/v1/%s?%s", c.baseURL, category, q.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.key != "" {
			token, err := c.createToken()
			if err != nil {
				return nil, fmt.Errorf("failed to create token: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("environment api error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var out pageResponse[T]
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode %s page %d: %w", category, page, err)
		}
		return out.Data, nil
	}
}

// createToken signs a short-lived HS256 token with the secret half of the key.
func (c *Client) createToken() (string, error) {
	id, secretHex, ok := strings.Cut(c.key, ":")
	if !ok || id == "" {
		return "", fmt.Errorf("invalid key format: expected id:secret")
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"aud": tokenAudience,
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
