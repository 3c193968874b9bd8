package wattquiz

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// UpdateKind is the wire discriminator of an Update.
type UpdateKind string

const (
	KindPlayerJoined       UpdateKind = "PLAYER_JOINED"
	KindPlayerLeft         UpdateKind = "PLAYER_LEFT"
	KindFullPlayerList     UpdateKind = "FULL_PLAYER_LIST"
	KindGameStarting       UpdateKind = "GAME_STARTING"
	KindNextQuestion       UpdateKind = "NEXT_QUESTION"
	KindTransitionEntered  UpdateKind = "TRANSITION_ENTERED"
	KindDisplayLeaderboard UpdateKind = "DISPLAY_LEADERBOARD"
	KindGameFinished       UpdateKind = "GAME_FINISHED"
	KindNameInUse          UpdateKind = "NAME_IN_USE"
	KindNameTooLong        UpdateKind = "NAME_TOO_LONG"
	KindTimerJoker         UpdateKind = "TIMER_JOKER"
	KindQuestionJoker      UpdateKind = "QUESTION_JOKER"
	KindEmoji              UpdateKind = "EMOJI"
)

// Update is a state-change event delivered to clients. The set of
// implementations is closed.
type Update interface {
	Kind() UpdateKind
	update()
}

type PlayerJoined struct {
	Username string `json:"username"`
}

type PlayerLeft struct {
	Username string `json:"username"`
}

type FullPlayerList struct {
	GameID  uuid.UUID `json:"gameId"`
	Players []string  `json:"players"`
}

type GameStarting struct{}

type NextQuestion struct {
	Index int `json:"index"`
}

// AnswerResult is one player's outcome for a closed answer window.
type AnswerResult struct {
	Correct bool  `json:"correct"`
	Points  int32 `json:"points"`
	Total   int32 `json:"total"`
	Answer  int64 `json:"answer"`
}

type TransitionEntered struct {
	Index   int                     `json:"index"`
	Results map[string]AnswerResult `json:"results"`
}

type DisplayLeaderboard struct {
	Scores []ScoreEntry `json:"scores"`
}

// GameFinished with nil Scores is the terminal sentinel handed to pollers
// whose player has left.
type GameFinished struct {
	Scores []ScoreEntry `json:"scores"`
}

type NameInUse struct {
	Username string `json:"username"`
}

type NameTooLong struct {
	Username string `json:"username"`
	Limit    int    `json:"limit"`
}

// TimerJoker carries each player's answer deadline in unix milliseconds.
type TimerJoker struct {
	By        string           `json:"by"`
	Deadlines map[string]int64 `json:"deadlines"`
}

type QuestionJoker struct {
	DisabledOption int `json:"disabledOption"`
}

type Emoji struct {
	Username string `json:"username"`
	Emoji    string `json:"emoji"`
}

func (PlayerJoined) Kind() UpdateKind       { return KindPlayerJoined }
func (PlayerLeft) Kind() UpdateKind         { return KindPlayerLeft }
func (FullPlayerList) Kind() UpdateKind     { return KindFullPlayerList }
func (GameStarting) Kind() UpdateKind       { return KindGameStarting }
func (NextQuestion) Kind() UpdateKind       { return KindNextQuestion }
func (TransitionEntered) Kind() UpdateKind  { return KindTransitionEntered }
func (DisplayLeaderboard) Kind() UpdateKind { return KindDisplayLeaderboard }
func (GameFinished) Kind() UpdateKind       { return KindGameFinished }
func (NameInUse) Kind() UpdateKind          { return KindNameInUse }
func (NameTooLong) Kind() UpdateKind        { return KindNameTooLong }
func (TimerJoker) Kind() UpdateKind         { return KindTimerJoker }
func (QuestionJoker) Kind() UpdateKind      { return KindQuestionJoker }
func (Emoji) Kind() UpdateKind              { return KindEmoji }

func (PlayerJoined) update()       {}
func (PlayerLeft) update()         {}
func (FullPlayerList) update()     {}
func (GameStarting) update()       {}
func (NextQuestion) update()       {}
func (TransitionEntered) update()  {}
func (DisplayLeaderboard) update() {}
func (GameFinished) update()       {}
func (NameInUse) update()          {}
func (NameTooLong) update()        {}
func (TimerJoker) update()         {}
func (QuestionJoker) update()      {}
func (Emoji) update()              {}

// Envelope is the wire format of an Update.
type Envelope struct {
	Type    UpdateKind      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var ErrUnknownUpdate = errors.New("unknown update type")

// EncodeUpdate serializes u inside an Envelope.
func EncodeUpdate(u Update) ([]byte, error) {
	switch u.(type) {
	case PlayerJoined, PlayerLeft, FullPlayerList, GameStarting, NextQuestion,
		TransitionEntered, DisplayLeaderboard, GameFinished, NameInUse,
		NameTooLong, TimerJoker, QuestionJoker, Emoji:
	default:
		return nil, fmt.Errorf("encoding %T: %w", u, ErrUnknownUpdate)
	}

	payload, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", u.Kind(), err)
	}
	return json.Marshal(Envelope{Type: u.Kind(), Payload: payload})
}

// DecodeUpdate parses an Envelope back into its variant.
func DecodeUpdate(data []byte) (Update, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	var (
		u   Update
		err error
	)
	switch env.Type {
	case KindPlayerJoined:
		u, err = decodePayload[PlayerJoined](env.Payload)
	case KindPlayerLeft:
		u, err = decodePayload[PlayerLeft](env.Payload)
	case KindFullPlayerList:
		u, err = decodePayload[FullPlayerList](env.Payload)
	case KindGameStarting:
		u, err = decodePayload[GameStarting](env.Payload)
	case KindNextQuestion:
		u, err = decodePayload[NextQuestion](env.Payload)
	case KindTransitionEntered:
		u, err = decodePayload[TransitionEntered](env.Payload)
	case KindDisplayLeaderboard:
		u, err = decodePayload[DisplayLeaderboard](env.Payload)
	case KindGameFinished:
		u, err = decodePayload[GameFinished](env.Payload)
	case KindNameInUse:
		u, err = decodePayload[NameInUse](env.Payload)
	case KindNameTooLong:
		u, err = decodePayload[NameTooLong](env.Payload)
	case KindTimerJoker:
		u, err = decodePayload[TimerJoker](env.Payload)
	case KindQuestionJoker:
		u, err = decodePayload[QuestionJoker](env.Payload)
	case KindEmoji:
		u, err = decodePayload[Emoji](env.Payload)
	default:
		return nil, fmt.Errorf("decoding %q: %w", env.Type, ErrUnknownUpdate)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
	}
	return u, nil
}

func decodePayload[T Update](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}
