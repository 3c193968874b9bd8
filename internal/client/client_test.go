package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

// scripted answers successive polls from a fixed list of responses.
type scripted struct {
	mu        sync.Mutex
	responses []func(w http.ResponseWriter)
	polls     int
}

func (s *scripted) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	i := s.polls
	s.polls++
	s.mu.Unlock()

	if i >= len(s.responses) {
		<-r.Context().Done()
		return
	}
	s.responses[i](w)
}

func update(u wattquiz.Update) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		data, _ := wattquiz.EncodeUpdate(u)
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func failure(code int, msg string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"error": msg})
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFollow(t *testing.T) {
	h := &scripted{responses: []func(http.ResponseWriter){
		update(wattquiz.GameStarting{}),
		failure(http.StatusInternalServerError, "poll timeout"),
		update(wattquiz.NextQuestion{Index: 0}),
		failure(http.StatusInternalServerError, "poll timeout"),
		update(wattquiz.GameFinished{Scores: []wattquiz.ScoreEntry{{Username: "ann", Score: 90}}}),
		update(wattquiz.NextQuestion{Index: 1}),
	}}
	c := newTestClient(t, h)

	var kinds []wattquiz.UpdateKind
	err := c.Follow(context.Background(), uuid.New(), "ann", func(u wattquiz.Update) error {
		kinds = append(kinds, u.Kind())
		return nil
	})
	if err != nil {
		t.Fatalf("follow: %v", err)
	}

	want := []wattquiz.UpdateKind{wattquiz.KindGameStarting, wattquiz.KindNextQuestion, wattquiz.KindGameFinished}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("update %d = %s, want %s", i, kinds[i], want[i])
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.polls != 5 {
		t.Errorf("polled %d times, want 5", h.polls)
	}
}

func TestFollowStopsOnCancel(t *testing.T) {
	c := newTestClient(t, &scripted{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Follow(ctx, uuid.New(), "ann", func(wattquiz.Update) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestFollowErrors(t *testing.T) {
	stop := errors.New("stop")

	tests := []struct {
		name     string
		response func(http.ResponseWriter)
		handle   func(wattquiz.Update) error
		check    func(error) bool
	}{
		{
			name:     "superseded",
			response: failure(http.StatusConflict, "poll superseded"),
			check:    func(err error) bool { return errors.Is(err, ErrSuperseded) },
		},
		{
			name:     "unknown game",
			response: failure(http.StatusBadRequest, "unknown game"),
			check: func(err error) bool {
				var se *StatusError
				return errors.As(err, &se) && se.Code == http.StatusBadRequest && se.Message == "unknown game"
			},
		},
		{
			name:     "handler error",
			response: update(wattquiz.GameStarting{}),
			handle:   func(wattquiz.Update) error { return stop },
			check:    func(err error) bool { return errors.Is(err, stop) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &scripted{responses: []func(http.ResponseWriter){tt.response}})
			handle := tt.handle
			if handle == nil {
				handle = func(wattquiz.Update) error { return nil }
			}
			if err := c.Follow(context.Background(), uuid.New(), "ann", handle); !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestRequests(t *testing.T) {
	gameID := uuid.New()
	var (
		mu   sync.Mutex
		seen = map[string]map[string]any{}
	)
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		seen[r.URL.Path] = body
		mu.Unlock()
	}
	mux.HandleFunc("POST /join", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		update(wattquiz.FullPlayerList{GameID: gameID, Players: []string{"ann"}})(w)
	})
	mux.HandleFunc("POST /game/answer", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /jokers/{kind}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		json.NewEncoder(w).Encode(map[string]any{"username": "ann", "applied": r.PathValue("kind") == "time"})
	})
	mux.HandleFunc("GET /game/questions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("gameId") != gameID.String() {
			failure(http.StatusBadRequest, "unknown game")(w)
			return
		}
		json.NewEncoder(w).Encode(make([]wattquiz.Question, wattquiz.QuestionsPerSession))
	})
	sent := func(path, field string) any {
		mu.Lock()
		defer mu.Unlock()
		return seen[path][field]
	}
	c := newTestClient(t, mux)
	ctx := context.Background()

	u, err := c.Join(ctx, "ann", wattquiz.ModeMultiplayer, false)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if list, ok := u.(wattquiz.FullPlayerList); !ok || list.GameID != gameID {
		t.Errorf("join = %#v", u)
	}
	if sent("/join", "mode") != string(wattquiz.ModeMultiplayer) {
		t.Errorf("join mode = %v", sent("/join", "mode"))
	}

	if err := c.Answer(ctx, gameID, "ann", 2); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if got := sent("/game/answer", "answer"); got != float64(2) {
		t.Errorf("answer sent as %#v", got)
	}

	applied, err := c.UseJoker(ctx, gameID, "ann", "time")
	if err != nil || !applied {
		t.Errorf("time joker = %v, %v", applied, err)
	}
	if sent("/jokers/time", "gameUUID") != gameID.String() {
		t.Errorf("joker game = %v", sent("/jokers/time", "gameUUID"))
	}
	if applied, _ := c.UseJoker(ctx, gameID, "ann", "score"); applied {
		t.Error("score joker reported applied")
	}

	qs, err := c.Questions(ctx, gameID)
	if err != nil || len(qs) != wattquiz.QuestionsPerSession {
		t.Errorf("questions = %d, %v", len(qs), err)
	}
	if _, err := c.Questions(ctx, uuid.New()); err == nil {
		t.Error("expected error for unknown game")
	}
}
