// Package client talks to a wattquiz server over HTTP and runs the
// long-poll loop a player uses to follow a game.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

var (
	// ErrPollTimeout means the server held the poll until its timeout
	// without an update. Polling again right away is expected.
	ErrPollTimeout = errors.New("poll timeout")
	// ErrSuperseded means a newer poll for the same player took over.
	ErrSuperseded = errors.New("poll superseded")
)

// StatusError is a non-200 answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// New creates a client for the server at baseURL. A nil hc uses
// http.DefaultClient.
func New(baseURL string, hc *http.Client, logger *slog.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: baseURL, http: hc, logger: logger}
}

func (c *Client) Join(ctx context.Context, username string, mode wattquiz.Mode, confirmOverwrite bool) (wattquiz.Update, error) {
	body := map[string]any{"username": username, "mode": mode, "confirmOverwrite": confirmOverwrite}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/join", body, &raw); err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	return wattquiz.DecodeUpdate(raw)
}

func (c *Client) Leave(ctx context.Context, gameID uuid.UUID, username string) error {
	body := map[string]string{"gameId": gameID.String(), "username": username}
	if err := c.do(ctx, http.MethodPost, "/leave", body, nil); err != nil {
		return fmt.Errorf("leave: %w", err)
	}
	return nil
}

func (c *Client) Start(ctx context.Context, gameID uuid.UUID) error {
	if err := c.do(ctx, http.MethodPost, "/game/start", map[string]string{"gameId": gameID.String()}, nil); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

func (c *Client) Questions(ctx context.Context, gameID uuid.UUID) ([]wattquiz.Question, error) {
	var qs []wattquiz.Question
	path := "/game/questions?" + url.Values{"gameId": {gameID.String()}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &qs); err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}
	return qs, nil
}

func (c *Client) Answer(ctx context.Context, gameID uuid.UUID, username string, value int64) error {
	body := map[string]any{"gameId": gameID.String(), "username": username, "answer": json.Number(strconv.FormatInt(value, 10))}
	if err := c.do(ctx, http.MethodPost, "/game/answer", body, nil); err != nil {
		return fmt.Errorf("answer: %w", err)
	}
	return nil
}

// UseJoker reports whether the joker took effect.
func (c *Client) UseJoker(ctx context.Context, gameID uuid.UUID, username, kind string) (bool, error) {
	var resp struct {
		Applied bool `json:"applied"`
	}
	body := map[string]string{"gameUUID": gameID.String(), "username": username}
	if err := c.do(ctx, http.MethodPost, "/jokers/"+url.PathEscape(kind), body, &resp); err != nil {
		return false, fmt.Errorf("joker %s: %w", kind, err)
	}
	return resp.Applied, nil
}

// Poll waits for the player's next update.
func (c *Client) Poll(ctx context.Context, gameID uuid.UUID, username string) (wattquiz.Update, error) {
	path := "/game?" + url.Values{"gameId": {gameID.String()}, "username": {username}}.Encode()
	var raw json.RawMessage
	err := c.do(ctx, http.MethodGet, path, nil, &raw)

	var se *StatusError
	switch {
	case err == nil:
		return wattquiz.DecodeUpdate(raw)
	case errors.As(err, &se) && se.Code == http.StatusInternalServerError && se.Message == ErrPollTimeout.Error():
		return nil, ErrPollTimeout
	case errors.As(err, &se) && se.Code == http.StatusConflict:
		return nil, ErrSuperseded
	default:
		return nil, err
	}
}

// Follow polls until the game finishes, handing every update to handle.
// Timed-out polls are re-issued at once. It returns nil after
// GameFinished, ctx.Err() once ctx is done, ErrSuperseded when another
// poller took over, and handle's error if it fails.
func (c *Client) Follow(ctx context.Context, gameID uuid.UUID, username string, handle func(wattquiz.Update) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		u, err := c.Poll(ctx, gameID, username)
		if errors.Is(err, ErrPollTimeout) {
			c.logger.Debug("poll timed out, polling again", "game_id", gameID)
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		if err := handle(u); err != nil {
			return err
		}
		if u.Kind() == wattquiz.KindGameFinished {
			return nil
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
