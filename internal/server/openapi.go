package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/wattquiz/internal/handler/health"
	"github.com/playperu/wattquiz/internal/wattquiz"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UpdateResponse documents the envelope every Update is sent in.
type UpdateResponse struct {
	Type    wattquiz.UpdateKind `json:"type" enum:"PLAYER_JOINED,PLAYER_LEFT,FULL_PLAYER_LIST,GAME_STARTING,NEXT_QUESTION,TRANSITION_ENTERED,DISPLAY_LEADERBOARD,GAME_FINISHED,NAME_IN_USE,NAME_TOO_LONG,TIMER_JOKER,QUESTION_JOKER,EMOJI"`
	Payload map[string]any      `json:"payload"`
}

type GameParams struct {
	GameID string `query:"gameId" required:"true" format:"uuid"`
}

type PollParams struct {
	GameID   string `query:"gameId" required:"true" format:"uuid"`
	Username string `query:"username" required:"true"`
}

type ScoresParams struct {
	Limit int `query:"limit" minimum:"0" description:"Maximum number of entries; 0 returns all."`
}

type JokerParams struct {
	Kind string `path:"kind" enum:"time,question,score"`
	JokerRequest
}

type HealthResponse map[string]health.Result

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "wattquiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the wattquiz energy trivia game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/join")
	postJoin.SetSummary("Join a game")
	postJoin.SetDescription("Multiplayer joins the open lobby; singleplayer starts a fresh game right away. " +
		"Answers FULL_PLAYER_LIST, NAME_IN_USE or NAME_TOO_LONG.")
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(UpdateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postJoin)

	// POST /leave
	postLeave, _ := r.NewOperationContext(http.MethodPost, "/leave")
	postLeave.SetSummary("Leave a game")
	postLeave.SetDescription("Removes the player. Leaving twice or leaving an unknown game is not an error.")
	postLeave.AddReqStructure(LeaveRequest{})
	postLeave.AddRespStructure(LeaveResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLeave.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postLeave)

	// POST /game/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/game/start")
	postStart.SetSummary("Start the lobby")
	postStart.SetDescription("Generates questions and promotes the open lobby to a running game.")
	postStart.AddReqStructure(StartRequest{})
	postStart.AddRespStructure(StartResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postStart)

	// GET /game/questions
	getQuestions, _ := r.NewOperationContext(http.MethodGet, "/game/questions")
	getQuestions.SetSummary("List questions")
	getQuestions.SetDescription("Returns the 20 questions of a started game.")
	getQuestions.AddReqStructure(GameParams{})
	getQuestions.AddRespStructure([]wattquiz.Question{}, openapi.WithHTTPStatus(http.StatusOK))
	getQuestions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getQuestions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(getQuestions)

	// GET /game
	getPoll, _ := r.NewOperationContext(http.MethodGet, "/game")
	getPoll.SetSummary("Poll for the next update")
	getPoll.SetDescription("Long-polls the player's next update. Times out with 500 \"poll timeout\"; " +
		"a newer poll by the same player ends this one with 409.")
	getPoll.AddReqStructure(PollParams{})
	getPoll.AddRespStructure(UpdateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPoll.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getPoll.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	getPoll.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(getPoll)

	// POST /game/answer
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/game/answer")
	postAnswer.SetSummary("Submit answer")
	postAnswer.SetDescription("Records the first answer to the running question; later answers are ignored.")
	postAnswer.AddReqStructure(AnswerRequest{})
	postAnswer.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postAnswer)

	// POST /game/emoji
	postEmoji, _ := r.NewOperationContext(http.MethodPost, "/game/emoji")
	postEmoji.SetSummary("Send emoji")
	postEmoji.SetDescription("Relays a reaction of at most 16 bytes to the other players.")
	postEmoji.AddReqStructure(EmojiRequest{})
	postEmoji.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postEmoji.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postEmoji)

	// POST /jokers/{kind}
	postJoker, _ := r.NewOperationContext(http.MethodPost, "/jokers/{kind}")
	postJoker.SetSummary("Use joker")
	postJoker.SetDescription("Each joker works once per player and game. Repeated or inapplicable uses answer applied=false.")
	postJoker.AddReqStructure(JokerParams{})
	postJoker.AddRespStructure(JokerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoker.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postJoker)

	// GET /game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of every update of a game, including the open lobby.")
	getEvents.AddReqStructure(GameParams{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /ws/game
	getSocket, _ := r.NewOperationContext(http.MethodGet, "/ws/game")
	getSocket.SetSummary("WebSocket event stream")
	getSocket.SetDescription("Upgrades to a WebSocket connection carrying the same updates as /game/events.")
	getSocket.AddReqStructure(GameParams{})
	getSocket.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getSocket)

	// GET /scores, /scores/sorted
	for _, path := range []string{"/scores", "/scores/sorted"} {
		getScores, _ := r.NewOperationContext(http.MethodGet, path)
		getScores.SetSummary("Leaderboard")
		getScores.SetDescription("Best score per username, highest first.")
		getScores.AddReqStructure(ScoresParams{})
		getScores.AddRespStructure([]wattquiz.ScoreEntry{}, openapi.WithHTTPStatus(http.StatusOK))
		getScores.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
		_ = r.AddOperation(getScores)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
