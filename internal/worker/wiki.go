package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"planforge.app/anvil/common/logger"
	"planforge.app/anvil/core/config"
)

// WikiClient publishes checklist pages to a Confluence-style wiki over its
// REST API. Pages are addressed by (space, title); UpsertPage looks the page
// up first and either creates it or bumps the version in place, so publishing
// the same session twice rewrites one page instead of accumulating copies.
type WikiClient struct {
	httpClient *http.Client
	baseURL    string
	username   string
	apiToken   string
}

func NewWikiClient(cfg config.WikiConfig) *WikiClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil

	return &WikiClient{
		httpClient: rc.StandardClient(),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		username:   cfg.Username,
		apiToken:   cfg.APIToken,
	}
}

type wikiSpace struct {
	Key string `json:"key"`
}

type wikiVersion struct {
	Number int `json:"number"`
}

type wikiStorage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type wikiBody struct {
	Storage wikiStorage `json:"storage"`
}

type wikiPage struct {
	ID      string       `json:"id,omitempty"`
	Type    string       `json:"type"`
	Title   string       `json:"title"`
	Space   *wikiSpace   `json:"space,omitempty"`
	Version *wikiVersion `json:"version,omitempty"`
	Body    wikiBody     `json:"body"`
}

type wikiSearchResponse struct {
	Results []struct {
		ID      string      `json:"id"`
		Version wikiVersion `json:"version"`
	} `json:"results"`
}

// UpsertPage creates or updates the page with the given title in the given
// space and returns its page ID.
func (c *WikiClient) UpsertPage(ctx context.Context, spaceKey, title, body string) (string, error) {
	pageID, version, found, err := c.findPage(ctx, spaceKey, title)
	if err != nil {
		return "", fmt.Errorf("looking up wiki page: %w", err)
	}

	if !found {
		id, err := c.createPage(ctx, spaceKey, title, body)
		if err != nil {
			return "", fmt.Errorf("creating wiki page: %w", err)
		}
		return id, nil
	}

	if err := c.updatePage(ctx, pageID, title, body, version+1); err != nil {
		return "", fmt.Errorf("updating wiki page %s: %w", pageID, err)
	}
	return pageID, nil
}

func (c *WikiClient) findPage(ctx context.Context, spaceKey, title string) (string, int, bool, error) {
	query := url.Values{}
	query.Set("spaceKey", spaceKey)
	query.Set("title", title)
	query.Set("expand", "version")

	var result wikiSearchResponse
	if err := c.do(ctx, http.MethodGet, "/rest/api/content?"+query.Encode(), nil, &result); err != nil {
		return "", 0, false, err
	}

	if len(result.Results) == 0 {
		return "", 0, false, nil
	}
	return result.Results[0].ID, result.Results[0].Version.Number, true, nil
}

func (c *WikiClient) createPage(ctx context.Context, spaceKey, title, body string) (string, error) {
	page := wikiPage{
		Type:  "page",
		Title: title,
		Space: &wikiSpace{Key: spaceKey},
		Body: wikiBody{
			Storage: wikiStorage{Value: body, Representation: "storage"},
		},
	}

	var created wikiPage
	if err := c.do(ctx, http.MethodPost, "/rest/api/content", page, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("wiki returned page without an id")
	}
	return created.ID, nil
}

func (c *WikiClient) updatePage(ctx context.Context, pageID, title, body string, version int) error {
	page := wikiPage{
		ID:      pageID,
		Type:    "page",
		Title:   title,
		Version: &wikiVersion{Number: version},
		Body: wikiBody{
			Storage: wikiStorage{Value: body, Representation: "storage"},
		},
	}
	return c.do(ctx, http.MethodPut, "/rest/api/content/"+pageID, page, nil)
}

func (c *WikiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling wiki api: %w", err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("wiki api returned %d: %s", res.StatusCode, logger.Truncate(string(respBody), 200))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
