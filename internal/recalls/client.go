// Package recalls fetches safety recall campaigns and technical service
// bulletins from an NHTSA-style feed.
package recalls

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

// Campaign is one recall campaign from the feed.
type Campaign struct {
	CampaignNumber string    `json:"campaign_number"`
	Component      string    `json:"component"`
	Summary        string    `json:"summary"`
	Remedy         string    `json:"remedy"`
	IssuedAt       time.Time `json:"issued_at"`
}

// Bulletin is one technical service bulletin from the feed.
type Bulletin struct {
	BulletinNumber string    `json:"bulletin_number"`
	Component      string    `json:"component"`
	Summary        string    `json:"summary"`
	IssuedAt       time.Time `json:"issued_at"`
}

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 6 * time.Hour
	maxAttempts     = 3
)

// Client queries the feed with retries on transient failures and caches
// responses per make/model/year so repeated syncs across a family's identical
// vehicles do not hammer the upstream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	recalls    *ttlcache.Cache[string, []Campaign]
	bulletins  *ttlcache.Cache[string, []Bulletin]
	logger     *zap.Logger
}

// NewClient builds a feed client. cacheTTL <= 0 falls back to six hours.
func NewClient(baseURL string, cacheTTL time.Duration, logger *zap.Logger) *Client {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		recalls: ttlcache.New[string, []Campaign](
			ttlcache.WithTTL[string, []Campaign](cacheTTL),
		),
		bulletins: ttlcache.New[string, []Bulletin](
			ttlcache.WithTTL[string, []Bulletin](cacheTTL),
		),
		logger: logger,
	}
	go c.recalls.Start()
	go c.bulletins.Start()
	return c
}

// FetchRecalls returns campaigns for the vehicle description.
func (c *Client) FetchRecalls(ctx context.Context, vehicleMake, vehicleModel string, year int) ([]Campaign, error) {
	key := cacheKey(vehicleMake, vehicleModel, year)
	if item := c.recalls.Get(key); item != nil {
		return item.Value(), nil
	}

	var payload struct {
		Results []Campaign `json:"results"`
	}
	if err := c.getJSON(ctx, "/recalls", vehicleMake, vehicleModel, year, &payload); err != nil {
		return nil, err
	}

	c.recalls.Set(key, payload.Results, ttlcache.DefaultTTL)
	return payload.Results, nil
}

// FetchTSBs returns service bulletins for the vehicle description.
func (c *Client) FetchTSBs(ctx context.Context, vehicleMake, vehicleModel string, year int) ([]Bulletin, error) {
	key := cacheKey(vehicleMake, vehicleModel, year)
	if item := c.bulletins.Get(key); item != nil {
		return item.Value(), nil
	}

	var payload struct {
		Results []Bulletin `json:"results"`
	}
	if err := c.getJSON(ctx, "/tsbs", vehicleMake, vehicleModel, year, &payload); err != nil {
		return nil, err
	}

	c.bulletins.Set(key, payload.Results, ttlcache.DefaultTTL)
	return payload.Results, nil
}

func (c *Client) getJSON(ctx context.Context, path, vehicleMake, vehicleModel string, year int, target interface{}) error {
	query := url.Values{}
	query.Set("make", vehicleMake)
	query.Set("model", vehicleModel)
	query.Set("year", strconv.Itoa(year))
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("feed: server error %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("feed: unexpected status %d", resp.StatusCode))
			}

			body, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("recall feed request retry",
				zap.Uint("attempt", n+1),
				zap.String("path", path),
				zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, target)
}

// Close stops cache eviction loops.
func (c *Client) Close() {
	c.recalls.Stop()
	c.bulletins.Stop()
}

func cacheKey(vehicleMake, vehicleModel string, year int) string {
	return fmt.Sprintf("%s|%s|%d", strings.ToLower(vehicleMake), strings.ToLower(vehicleModel), year)
}
