// Package beeminder is a thin client for the Beeminder datapoint API.
package beeminder

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

	"medsync/internal/logger"
	"medsync/internal/models"
)

const (
	// DefaultBaseURL is the production Beeminder API root.
	DefaultBaseURL = "https://www.beeminder.com/api/v1"

	// perPage is the maximum page size the API allows.
	perPage = 300
)

// Client wraps HTTP calls to the Beeminder API for a single user.
type Client struct {
	// Username is the Beeminder account the goals belong to.
	Username string
	// Token is the account's auth_token.
	Token string
	// BaseURL is the API root; override in tests.
	BaseURL string
	// HTTP is the underlying client; carries the request timeout.
	HTTP *http.Client

	log *logger.Logger
}

// New creates a Client for the given account. A zero timeout disables the
// client-side deadline.
func New(username, token string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		Username: username,
		Token:    token,
		BaseURL:  DefaultBaseURL,
		HTTP:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// FetchAll pages through all datapoints of a goal in request order, stopping
// at the first empty or short page. On a mid-pagination failure it returns
// the datapoints accumulated so far together with the error; partial results
// remain usable.
func (c *Client) FetchAll(ctx context.Context, goal string) ([]models.Datapoint, error) {
	var all []models.Datapoint
	for page := 1; ; page++ {
		pts, err := c.fetchPage(ctx, goal, page)
		if err != nil {
			return all, fmt.Errorf("fetch %s page %d: %w", goal, page, err)
		}
		if len(pts) == 0 {
			break
		}
		all = append(all, pts...)
		if c.log != nil {
			c.log.Debugw("fetched page", "goal", goal, "page", page, "count", len(pts))
		}
		if len(pts) < perPage {
			break
		}
	}
	if c.log != nil {
		c.log.Infow("fetched datapoints", "goal", goal, "total", len(all))
	}
	return all, nil
}

// Create adds a datapoint to a goal via a form-encoded POST.
func (c *Client) Create(ctx context.Context, goal string, value float64, timestamp int64, comment string) error {
	form := url.Values{
		"auth_token": {c.Token},
		"value":      {strconv.FormatFloat(value, 'f', -1, 64)},
		"timestamp":  {strconv.FormatInt(timestamp, 10)},
		"comment":    {comment},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.datapointsURL(goal), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create datapoint on %s: %w", goal, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("create datapoint on %s: %w", goal, err)
	}
	if c.log != nil {
		c.log.Infow("created datapoint", "goal", goal, "value", value, "timestamp", timestamp)
	}
	return nil
}

// Delete removes a datapoint from a goal by its remote identifier.
func (c *Client) Delete(ctx context.Context, goal, id string) error {
	u := fmt.Sprintf("%s/users/%s/goals/%s/datapoints/%s.json?auth_token=%s",
		c.BaseURL, c.Username, goal, id, url.QueryEscape(c.Token))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("delete datapoint %s from %s: %w", id, goal, err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("delete datapoint %s from %s: %w", id, goal, err)
	}
	if c.log != nil {
		c.log.Infow("deleted datapoint", "goal", goal, "id", id)
	}
	return nil
}

func (c *Client) fetchPage(ctx context.Context, goal string, page int) ([]models.Datapoint, error) {
	u := fmt.Sprintf("%s?auth_token=%s&page=%d&per_page=%d",
		c.datapointsURL(goal), url.QueryEscape(c.Token), page, perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var pts []models.Datapoint
	if err := c.do(req, &pts); err != nil {
		return nil, err
	}
	return pts, nil
}

func (c *Client) datapointsURL(goal string) string {
	return fmt.Sprintf("%s/users/%s/goals/%s/datapoints.json", c.BaseURL, c.Username, goal)
}

// do executes the request, enforces a 2xx status, and decodes the body into
// out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
