package game

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/wattquiz/internal/scoring"
	"github.com/playperu/wattquiz/internal/wattquiz"
)

// MaxEmojiBytes bounds the payload of an emoji reaction.
const MaxEmojiBytes = 16

type Phase int

const (
	PhaseLobby Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseTransition
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseTransition:
		return "transition"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Timing holds the durations driving a session.
type Timing struct {
	AnswerWindow    time.Duration
	TransitionDelay time.Duration
}

type JokerKind string

const (
	JokerTime     JokerKind = "time"
	JokerQuestion JokerKind = "question"
	JokerScore    JokerKind = "score"
)

func ParseJoker(s string) (JokerKind, error) {
	switch k := JokerKind(s); k {
	case JokerTime, JokerQuestion, JokerScore:
		return k, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownJoker)
}

type player struct {
	points int32
	slot   *Slot

	usedTime, usedQuestion, usedScore bool
	doubled                           bool

	answered   bool
	answer     int64
	answeredAt time.Time
	deadline   time.Time
}

type sessionDeps struct {
	broker   *Broker
	scores   Leaderboard
	clock    Clock
	timing   Timing
	logger   *slog.Logger
	intN     func(n int) int
	onFinish func(*Session)
}

// Session is one game: its players, its question program and the timers
// that walk through it. All state is guarded by mu; timer callbacks carry
// the step they were scheduled for and are ignored once the session has
// moved on.
type Session struct {
	ID   uuid.UUID
	Mode wattquiz.Mode

	sessionDeps

	mu        sync.Mutex
	phase     Phase
	players   map[string]*player
	order     []string
	departed  map[string]*Slot
	questions []wattquiz.Question
	index     int
	openedAt  time.Time
	step      uint64
	stopTimer func() bool
}

func newSession(mode wattquiz.Mode, deps sessionDeps) *Session {
	id := uuid.New()
	deps.logger = deps.logger.With("game_id", id)
	return &Session{
		ID:          id,
		Mode:        mode,
		sessionDeps: deps,
		players:     make(map[string]*player),
		departed:    make(map[string]*Slot),
	}
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Players returns usernames in join order.
func (s *Session) Players() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

func (s *Session) Player(username string) (wattquiz.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[username]
	if !ok {
		return wattquiz.Player{}, false
	}
	return wattquiz.Player{Username: username, Points: p.points}, true
}

// Questions returns the session's question program; empty before start.
func (s *Session) Questions() []wattquiz.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.questions)
}

// Scores returns the current ranking.
func (s *Session) Scores() []wattquiz.ScoreEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ranking()
}

func (s *Session) addPlayer(username string) wattquiz.Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[username]; ok {
		return wattquiz.NameInUse{Username: username}
	}
	s.players[username] = &player{slot: newSlot()}
	delete(s.departed, username)
	s.order = append(s.order, username)
	s.broadcast(wattquiz.PlayerJoined{Username: username}, username)

	return wattquiz.FullPlayerList{GameID: s.ID, Players: slices.Clone(s.order)}
}

// begin freezes membership, installs the question program and schedules
// the first question one transition delay after GameStarting.
func (s *Session) begin(questions []wattquiz.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return ErrAlreadyStarted
	}
	if len(s.players) == 0 {
		return ErrEmptyLobby
	}
	if len(questions) != wattquiz.QuestionsPerSession {
		return fmt.Errorf("got %d questions: %w", len(questions), ErrIncompleteProgram)
	}

	s.questions = slices.Clone(questions)
	s.phase = PhaseStarting
	s.broadcast(wattquiz.GameStarting{}, "")
	s.schedule(s.timing.TransitionDelay)

	s.logger.Info("game started", "mode", s.Mode, "players", len(s.players))
	return nil
}

// Answer records a player's first answer to the running question. Answers
// outside the running phase, after the player's deadline, or repeated for
// the same question are ignored.
func (s *Session) Answer(username string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[username]
	if !ok {
		return ErrUnknownPlayer
	}
	if s.phase != PhaseRunning || p.answered {
		return nil
	}
	now := s.clock.Now()
	if now.After(p.deadline) {
		return nil
	}
	p.answered = true
	p.answer = value
	p.answeredAt = now
	return nil
}

// UseJoker applies a joker for the running question. It reports false
// without consuming the joker when it was already used or does not apply.
func (s *Session) UseJoker(username string, kind JokerKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[username]
	if !ok {
		return false, ErrUnknownPlayer
	}
	if s.phase != PhaseRunning {
		return false, nil
	}

	switch kind {
	case JokerTime:
		if p.usedTime {
			return false, nil
		}
		p.usedTime = true

		now := s.clock.Now()
		deadlines := make(map[string]int64, len(s.players))
		for name, other := range s.players {
			if name != username && !other.answered && other.deadline.After(now) {
				other.deadline = now.Add(other.deadline.Sub(now) / 2)
			}
			deadlines[name] = other.deadline.UnixMilli()
		}
		s.broadcast(wattquiz.TimerJoker{By: username, Deadlines: deadlines}, "")

	case JokerQuestion:
		q := s.questions[s.index]
		if p.usedQuestion || !q.MultipleChoice() {
			return false, nil
		}
		wrong := make([]int, 0, len(q.Options))
		for i := range q.Options {
			if int64(i) != q.Answer {
				wrong = append(wrong, i)
			}
		}
		if len(wrong) == 0 {
			return false, nil
		}
		p.usedQuestion = true
		p.slot.Deliver(wattquiz.QuestionJoker{DisabledOption: wrong[s.intN(len(wrong))]})

	case JokerScore:
		if p.usedScore {
			return false, nil
		}
		p.usedScore = true
		p.doubled = true

	default:
		return false, fmt.Errorf("%q: %w", kind, ErrUnknownJoker)
	}

	s.logger.Debug("joker used", "username", username, "joker", kind)
	return true, nil
}

// Emoji relays a reaction to every other player.
func (s *Session) Emoji(username, emoji string) error {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len(emoji) > MaxEmojiBytes {
		return ErrInvalidEmoji
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[username]; !ok {
		return ErrUnknownPlayer
	}
	if s.phase == PhaseFinished {
		return nil
	}
	s.broadcast(wattquiz.Emoji{Username: username, Emoji: emoji}, username)
	return nil
}

// Poll waits for the player's next update. A player who left keeps a
// closed slot, so late polls receive the terminal sentinel.
func (s *Session) Poll(ctx context.Context, username string, timeout time.Duration) (wattquiz.Update, error) {
	s.mu.Lock()
	var slot *Slot
	if p, ok := s.players[username]; ok {
		slot = p.slot
	} else {
		slot = s.departed[username]
	}
	s.mu.Unlock()

	if slot == nil {
		return nil, ErrUnknownPlayer
	}
	return slot.Wait(ctx, timeout)
}

// removePlayer reports whether a started session has become empty.
func (s *Session) removePlayer(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[username]
	if !ok {
		return false
	}
	delete(s.players, username)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == username })
	p.slot.Discard()
	s.departed[username] = p.slot
	s.broadcast(wattquiz.PlayerLeft{Username: username}, "")

	if len(s.players) == 0 && s.phase != PhaseLobby {
		s.halt()
		s.logger.Info("game abandoned")
		return true
	}
	return false
}

// Stop cancels the session's timer and closes every slot.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.halt()
	for _, p := range s.players {
		p.slot.Close()
	}
}

func (s *Session) halt() {
	s.phase = PhaseFinished
	s.step++
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

func (s *Session) schedule(d time.Duration) {
	if s.stopTimer != nil {
		s.stopTimer()
	}
	s.step++
	step := s.step
	s.stopTimer = s.clock.AfterFunc(d, func() { s.advance(step) })
}

// advance is the timer callback: it moves the session one phase forward.
func (s *Session) advance(step uint64) {
	s.mu.Lock()
	if step != s.step {
		s.mu.Unlock()
		return
	}
	s.stopTimer = nil

	var persist func()
	switch s.phase {
	case PhaseStarting:
		s.openQuestion(0)
	case PhaseRunning:
		s.closeWindow()
	case PhaseTransition:
		if s.index+1 < len(s.questions) {
			s.openQuestion(s.index + 1)
		} else {
			persist = s.finish()
		}
	}
	s.mu.Unlock()

	if persist != nil {
		persist()
	}
}

func (s *Session) openQuestion(i int) {
	s.index = i
	s.phase = PhaseRunning
	s.openedAt = s.clock.Now()

	deadline := s.openedAt.Add(s.timing.AnswerWindow)
	for _, p := range s.players {
		p.answered = false
		p.answer = 0
		p.doubled = false
		p.deadline = deadline
	}

	s.broadcast(wattquiz.NextQuestion{Index: i}, "")
	s.schedule(s.timing.AnswerWindow)
}

// closeWindow scores every player for the running question. Players who
// did not answer score as incorrect at the full window.
func (s *Session) closeWindow() {
	q := s.questions[s.index]
	results := make(map[string]wattquiz.AnswerResult, len(s.players))

	for name, p := range s.players {
		var (
			points  int
			correct bool
		)
		if p.answered {
			frac := scoring.Fraction(p.answeredAt.Sub(s.openedAt), s.timing.AnswerWindow)
			correct = q.Correct(p.answer)
			if q.MultipleChoice() {
				points = scoring.MultipleChoice(correct, frac)
			} else {
				points = scoring.Estimation(p.answer, q.Answer, frac)
			}
		}
		if p.doubled {
			points *= 2
		}
		p.points += int32(points)

		results[name] = wattquiz.AnswerResult{
			Correct: correct,
			Points:  int32(points),
			Total:   p.points,
			Answer:  q.Answer,
		}
	}

	s.phase = PhaseTransition
	s.broadcast(wattquiz.TransitionEntered{Index: s.index, Results: results}, "")
	s.schedule(s.timing.TransitionDelay)
}

// finish ends the game and returns the work to run once mu is released:
// persisting scores and notifying the registry.
func (s *Session) finish() func() {
	s.phase = PhaseFinished
	scores := s.ranking()

	s.broadcast(wattquiz.DisplayLeaderboard{Scores: scores}, "")
	s.broadcast(wattquiz.GameFinished{Scores: scores}, "")
	for _, p := range s.players {
		p.slot.Close()
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, e := range scores {
			if err := s.scores.SaveMax(ctx, e.Username, e.Score); err != nil {
				s.logger.Error("saving score", "username", e.Username, "error", err)
			}
		}
		s.logger.Info("game finished", "players", len(scores))

		if s.onFinish != nil {
			s.onFinish(s)
		}
	}
}

// ranking sorts players by points, then by name.
func (s *Session) ranking() []wattquiz.ScoreEntry {
	scores := make([]wattquiz.ScoreEntry, 0, len(s.players))
	for _, name := range s.order {
		scores = append(scores, wattquiz.ScoreEntry{Username: name, Score: int(s.players[name].points)})
	}
	slices.SortStableFunc(scores, func(a, b wattquiz.ScoreEntry) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Username, b.Username)
	})
	return scores
}

// broadcast delivers u to every player's slot except the named one and
// publishes it on the game's push topic.
func (s *Session) broadcast(u wattquiz.Update, except string) {
	for _, name := range s.order {
		if name != except {
			s.players[name].slot.Deliver(u)
		}
	}
	if err := s.broker.Publish(s.ID.String(), u); err != nil {
		s.logger.Error("publishing update", "kind", u.Kind(), "error", err)
	}
}
