// Package anki talks to the AnkiConnect add-on over its JSON HTTP API.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// APIVersion is the AnkiConnect protocol version sent with every request.
const APIVersion = 6

// APIError is a non-null error field in an AnkiConnect response.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anki: %s: %s", e.Action, e.Message)
}

type request struct {
	Action  string      `json:"action"`
	Version int         `json:"version"`
	Params  interface{} `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// Client calls AnkiConnect. Calls have no client-side timeout; bound them
// with the context.
type Client struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Client for the AnkiConnect endpoint at url.
func NewClient(url string, logger zerolog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{},
		log:        logger.With().Str("adapter", "anki").Logger(),
	}
}

// Invoke runs action and decodes its result into out (which may be nil).
func (c *Client) Invoke(ctx context.Context, action string, params, out interface{}) error {
	raw, err := c.invokeRaw(ctx, action, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("anki: %s: decode result: %w", action, err)
	}
	return nil
}

func (c *Client) invokeRaw(ctx context.Context, action string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(request{Action: action, Version: APIVersion, Params: params})
	if err != nil {
		return nil, fmt.Errorf("anki: %s: encode request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anki: %s: create request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("action", action).Msg("anki request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anki: %s: request failed (is Anki running with AnkiConnect installed?): %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("anki: %s: read body: %w", action, err)
	}

	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("anki: %s: failed to parse response %q: %w", action, truncate(data, 200), err)
	}
	if r.Error != nil {
		c.log.Debug().Str("action", action).Str("error", *r.Error).Msg("anki error")
		return nil, &APIError{Action: action, Message: *r.Error}
	}
	return r.Result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Version returns the AnkiConnect protocol version.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	if err := c.Invoke(ctx, "version", nil, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// CheckConnection reports whether AnkiConnect answers.
func (c *Client) CheckConnection(ctx context.Context) bool {
	_, err := c.Version(ctx)
	return err == nil
}

// DeckNames lists all decks.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.Invoke(ctx, "deckNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ModelNames lists all note types.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.Invoke(ctx, "modelNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ModelFieldNames lists the fields of a note type in order.
func (c *Client) ModelFieldNames(ctx context.Context, modelName string) ([]string, error) {
	var names []string
	params := map[string]string{"modelName": modelName}
	if err := c.Invoke(ctx, "modelFieldNames", params, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// AddNote creates note and returns its id. A nil id with a nil error means
// AnkiConnect refused the note as a likely duplicate.
func (c *Client) AddNote(ctx context.Context, note Note) (*int64, error) {
	var id *int64
	if err := c.Invoke(ctx, "addNote", map[string]Note{"note": note}, &id); err != nil {
		return nil, err
	}
	return id, nil
}
