// Package game runs quiz sessions: the lobby, the question cycle with its
// timers and jokers, and delivery of updates to players.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

var (
	ErrUnknownGame       = errors.New("unknown game")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrNotLobby          = errors.New("game is not the open lobby")
	ErrEmptyLobby        = errors.New("lobby has no players")
	ErrAlreadyStarted    = errors.New("game already started")
	ErrIncompleteProgram = errors.New("incomplete question program")
	ErrInvalidMode       = errors.New("invalid mode")
	ErrBlankUsername     = errors.New("username is required")
	ErrUnknownJoker      = errors.New("unknown joker")
	ErrInvalidEmoji      = errors.New("invalid emoji")
)

// Questions produces a session's question program.
type Questions interface {
	Session(ctx context.Context, minPerType int) ([]wattquiz.Question, error)
}

// Leaderboard is the persistence a session needs.
type Leaderboard interface {
	SaveMax(ctx context.Context, username string, score int) error
	Has(ctx context.Context, username string) (bool, error)
}

type Config struct {
	Timing
	MinPerType  int
	FinishedTTL time.Duration
	// Clock defaults to the system clock.
	Clock Clock
}

// Registry is the directory of sessions. It owns exactly one open lobby;
// every other session is active and keyed by its ID. The lobby is never a
// key of the active map.
type Registry struct {
	questions Questions
	scores    Leaderboard
	broker    *Broker
	logger    *slog.Logger
	cfg       Config

	mu     sync.Mutex
	lobby  *Session
	active map[uuid.UUID]*Session
}

func NewRegistry(questions Questions, scores Leaderboard, broker *Broker, logger *slog.Logger, cfg Config) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	r := &Registry{
		questions: questions,
		scores:    scores,
		broker:    broker,
		logger:    logger,
		cfg:       cfg,
		active:    make(map[uuid.UUID]*Session),
	}
	r.EnsureLobby()
	return r
}

// EnsureLobby opens a lobby if none exists and returns its ID.
func (r *Registry) EnsureLobby() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lobby == nil {
		r.lobby = r.newSession(wattquiz.ModeMultiplayer)
	}
	return r.lobby.ID
}

func (r *Registry) newSession(mode wattquiz.Mode) *Session {
	return newSession(mode, sessionDeps{
		broker:   r.broker,
		scores:   r.scores,
		clock:    r.cfg.Clock,
		timing:   r.cfg.Timing,
		logger:   r.logger,
		intN:     rand.IntN,
		onFinish: r.expire,
	})
}

// Join adds username to the lobby, or to a fresh singleplayer session that
// starts right away. Rejections come back as NameTooLong or NameInUse
// updates; success as FullPlayerList.
func (r *Registry) Join(ctx context.Context, username string, mode wattquiz.Mode, confirmOverwrite bool) (wattquiz.Update, error) {
	username = wattquiz.NormalizeUsername(username)
	if username == "" {
		return nil, ErrBlankUsername
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%q: %w", mode, ErrInvalidMode)
	}
	if wattquiz.UsernameTooLong(username) {
		return wattquiz.NameTooLong{Username: username, Limit: wattquiz.MaxUsernameLength}, nil
	}

	if mode == wattquiz.ModeMultiplayer {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.lobby.addPlayer(username), nil
	}

	if !confirmOverwrite {
		exists, err := r.scores.Has(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("checking leaderboard: %w", err)
		}
		if exists {
			return wattquiz.NameInUse{Username: username}, nil
		}
	}

	questions, err := r.questions.Session(ctx, r.cfg.MinPerType)
	if err != nil {
		return nil, fmt.Errorf("generating questions: %w", err)
	}

	s := r.newSession(wattquiz.ModeSingleplayer)
	u := s.addPlayer(username)

	r.mu.Lock()
	r.active[s.ID] = s
	r.mu.Unlock()

	if err := s.begin(questions); err != nil {
		r.drop(s.ID)
		return nil, err
	}
	return u, nil
}

// StartLobby promotes the lobby with the given ID to an active session and
// opens a fresh lobby. Questions are generated before the swap; when that
// fails the lobby stays open.
func (r *Registry) StartLobby(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	lobby := r.lobby
	r.mu.Unlock()

	if lobby.ID != id {
		return ErrNotLobby
	}
	if len(lobby.Players()) == 0 {
		return ErrEmptyLobby
	}

	questions, err := r.questions.Session(ctx, r.cfg.MinPerType)
	if err != nil {
		return fmt.Errorf("generating questions: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lobby.ID != id {
		return ErrNotLobby
	}
	if err := lobby.begin(questions); err != nil {
		return err
	}
	r.active[id] = lobby
	r.lobby = r.newSession(wattquiz.ModeMultiplayer)

	r.logger.Info("lobby promoted", "game_id", id, "next_lobby", r.lobby.ID)
	return nil
}

// Lobby returns the open lobby.
func (r *Registry) Lobby() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lobby
}

// Game looks up the lobby or an active session; nil when absent.
func (r *Registry) Game(id uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lobby.ID == id {
		return r.lobby
	}
	return r.active[id]
}

func (r *Registry) IsLobby(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lobby.ID == id
}

// Active returns a started session. The open lobby is never active, so it
// yields ErrUnknownGame like an absent ID.
func (r *Registry) Active(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.active[id]
	if !ok {
		return nil, ErrUnknownGame
	}
	return s, nil
}

// RemovePlayer takes username out of the game. Absent games and players
// are ignored. An active session left without players is dropped.
func (r *Registry) RemovePlayer(username string, id uuid.UUID) {
	s := r.Game(id)
	if s == nil {
		return
	}
	if s.removePlayer(wattquiz.NormalizeUsername(username)) {
		r.drop(id)
	}
}

// Close stops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.active)+1)
	sessions = append(sessions, r.lobby)
	for _, s := range r.active {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}

// expire drops a finished session after FinishedTTL, leaving time for
// late polls to drain its slots.
func (r *Registry) expire(s *Session) {
	r.cfg.Clock.AfterFunc(r.cfg.FinishedTTL, func() { r.drop(s.ID) })
}

func (r *Registry) drop(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}
