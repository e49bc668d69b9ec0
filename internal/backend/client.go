package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakanhub/listing/internal/model"
)

// Client talks to the upstream property API. Every response is expected to
// carry the {status: "success", data: {...}} envelope; anything else is
// treated as ErrUnexpectedResponse.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the given API base URL. The token may be empty;
// submission paths check HasToken before any network call.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// HasToken reports whether the client carries an authenticated session.
func (c *Client) HasToken() bool {
	return c.token != ""
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" && len(apiErr.Errors) == 0 {
			return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, ErrUnexpectedResponse)
		}
		return apiErr
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnexpectedResponse)
	}
	if env.Status != "success" {
		return fmt.Errorf("%s %s: status %q: %w", method, path, env.Status, ErrUnexpectedResponse)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, ErrUnexpectedResponse)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(buf), "application/json", out)
}

// Categories returns the property category choices.
func (c *Client) Categories(ctx context.Context) ([]model.Option, error) {
	var opts []model.Option
	if err := c.get(ctx, "/properties/categories", &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Facades returns the facade direction choices.
func (c *Client) Facades(ctx context.Context) ([]model.Option, error) {
	var opts []model.Option
	if err := c.get(ctx, "/property/facades", &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Projects returns the user's projects.
func (c *Client) Projects(ctx context.Context) ([]model.Option, error) {
	var opts []model.Option
	if err := c.get(ctx, "/user/projects", &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Buildings returns the user's buildings.
func (c *Client) Buildings(ctx context.Context) ([]model.Option, error) {
	var opts []model.Option
	if err := c.get(ctx, "/buildings", &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// FAQPrompts returns the suggested FAQ questions.
func (c *Client) FAQPrompts(ctx context.Context) ([]string, error) {
	var prompts []struct {
		Question string `json:"question"`
	}
	if err := c.get(ctx, "/property-faqs", &prompts); err != nil {
		return nil, err
	}
	questions := make([]string, 0, len(prompts))
	for _, p := range prompts {
		if p.Question != "" {
			questions = append(questions, p.Question)
		}
	}
	return questions, nil
}

// Property fetches one published record.
func (c *Client) Property(ctx context.Context, id int64) (*Property, error) {
	var p Property
	if err := c.get(ctx, fmt.Sprintf("/properties/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Draft fetches one draft record.
func (c *Client) Draft(ctx context.Context, id int64) (*Property, error) {
	var p Property
	if err := c.get(ctx, fmt.Sprintf("/properties/drafts/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProperty creates a listing.
func (c *Client) CreateProperty(ctx context.Context, payload *PropertyPayload) error {
	return c.postJSON(ctx, "/properties", payload, nil)
}

// UpdateProperty updates a listing. The backend reuses POST for updates;
// this is its documented contract, not a dedicated update verb.
func (c *Client) UpdateProperty(ctx context.Context, id int64, payload *PropertyPayload) error {
	return c.postJSON(ctx, fmt.Sprintf("/properties/%d", id), payload, nil)
}

// CompleteDraft finalizes a draft with the reduced payload.
func (c *Client) CompleteDraft(ctx context.Context, id int64, payload *CompleteDraftPayload) error {
	return c.postJSON(ctx, fmt.Sprintf("/properties/drafts/%d/complete", id), payload, nil)
}
