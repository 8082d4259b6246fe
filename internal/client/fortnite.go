package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lwatty24/fortniteshop.site/internal/config"
	"github.com/lwatty24/fortniteshop.site/internal/domain"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const dateLayout = "2006-01-02"

type FortniteClient interface {
	GetCurrentShop(ctx context.Context) (*domain.ShopSnapshot, error)
	GetShopForDate(ctx context.Context, date string) (*domain.ShopSnapshot, error)
	SearchCosmetics(ctx context.Context, query string, limit int) ([]domain.CatalogItem, error)
}

type fortniteClient struct {
	rl         ratelimit.Limiter
	config     config.FortniteConfig
	baseURL    string
	httpClient *resty.Client
	normalizer *shopNormalizer
	clock      clock.Clock
}

func NewFortniteClient(cfg config.FortniteConfig, clk clock.Clock) FortniteClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Encoding", "gzip")

	return &fortniteClient{
		rl:         ratelimit.New(cfg.MaxRequestsPerSecond),
		config:     cfg,
		baseURL:    cfg.BaseURL,
		httpClient: client,
		normalizer: newShopNormalizer(),
		clock:      clk,
	}
}

func (c *fortniteClient) GetCurrentShop(ctx context.Context) (*domain.ShopSnapshot, error) {
	url := fmt.Sprintf("%s/v2/shop", c.baseURL)

	var payload shopResponse
	if err := c.getJSON(ctx, url, nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch current shop: %w", err)
	}

	if payload.Data == nil {
		return nil, fmt.Errorf("shop response missing data container: %w", domain.ErrInvalidShopData)
	}

	date := c.clock.Now().UTC().Format(dateLayout)
	snapshot, err := c.normalizer.NormalizeShop(payload.Data, date)
	if err != nil {
		return nil, err
	}

	log.Debugf("Fetched current shop: %d sections for %s", len(snapshot.Sections), date)
	return snapshot, nil
}

func (c *fortniteClient) GetShopForDate(ctx context.Context, date string) (*domain.ShopSnapshot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid shop date %q: %w", date, err)
	}

	url := fmt.Sprintf("%s/v2/shop/br/%s", c.baseURL, date)

	var payload shopResponse
	if err := c.getJSON(ctx, url, nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch shop for %s: %w", date, err)
	}

	if payload.Data == nil {
		return nil, fmt.Errorf("shop response for %s missing data container: %w", date, domain.ErrInvalidShopData)
	}

	return c.normalizer.NormalizeShop(payload.Data, date)
}

func (c *fortniteClient) SearchCosmetics(ctx context.Context, query string, limit int) ([]domain.CatalogItem, error) {
	url := fmt.Sprintf("%s/v2/cosmetics/br/search/all", c.baseURL)
	params := map[string]string{
		"name":        query,
		"matchMethod": "contains",
		"language":    "en",
	}

	var payload searchResponse
	if err := c.getJSON(ctx, url, params, &payload); err != nil {
		return nil, fmt.Errorf("search failed for %q: %w", query, err)
	}

	results := c.normalizer.NormalizeSearchResults(payload.Data, limit)
	log.Debugf("Search %q matched %d items", query, len(results))
	return results, nil
}

func (c *fortniteClient) getJSON(ctx context.Context, url string, params map[string]string, out interface{}) error {
	c.rl.Take()

	req := c.httpClient.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to fetch URL: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("HTTP error: 404 %s: %w", resp.Status(), domain.ErrNotFound)
	}
	if resp.IsError() {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	if err := json.Unmarshal([]byte(resp.String()), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
