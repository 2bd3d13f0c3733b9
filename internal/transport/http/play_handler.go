package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pychallenge-service/internal/app"
	"pychallenge-service/internal/auth"
	"pychallenge-service/internal/domain"
)

// PlayHandler runs one attempt per websocket connection. The connection owns
// the attempt state; closing it before submitting leaves nothing behind.
type PlayHandler struct {
	service  *app.PlayService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewPlayHandler(service *app.PlayService, logger *zap.Logger, checkOrigin func(r *http.Request) bool) *PlayHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &PlayHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type questionPayload struct {
	Index int `json:"index"`
}

type answerPayload struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	OptionID string `json:"optionId"`
}

type answersPayload struct {
	AnswersRevealed bool                 `json:"answersRevealed"`
	Answers         []app.RevealedAnswer `json:"answers"`
}

type recordedPayload struct {
	Recorded  bool   `json:"recorded"`
	AttemptID string `json:"attemptId,omitempty"`
	Message   string `json:"message,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and plays the challenge named in the path.
func (h *PlayHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	session, err := h.service.Start(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	// a dead writer must not block the read loop
	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	emit(outboundMessage[any]{Type: "challenge", Payload: session.Challenge().Public()})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handle(r.Context(), session, inbound, emit)
	}

	close(send)
	<-writerDone
}

func (h *PlayHandler) handle(ctx context.Context, session *app.PlaySession, inbound inboundMessage, emit func(outboundMessage[any])) {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			emit(errorMessage(errors.New("invalid answer payload")))
			return
		}
		err := session.SetAnswer(payload.Index, domain.Submission{Text: payload.Text, OptionID: payload.OptionID})
		if err != nil {
			emit(errorMessage(err))
			return
		}
		emit(outboundMessage[any]{Type: "answerAccepted", Payload: questionPayload{Index: payload.Index}})

	case "toggleHint", "requestHint":
		var payload questionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			emit(errorMessage(errors.New("invalid hint payload")))
			return
		}
		toggle := session.ToggleHint
		if inbound.Type == "requestHint" {
			toggle = session.RequestHint
		}
		view, err := toggle(payload.Index)
		if err != nil {
			emit(errorMessage(err))
			return
		}
		emit(outboundMessage[any]{Type: "hint", Payload: view})

	case "revealAnswers":
		answers := session.RevealAnswers()
		emit(outboundMessage[any]{Type: "answers", Payload: answersPayload{
			AnswersRevealed: session.AnswersRevealed(),
			Answers:         answers,
		}})

	case "submit":
		result, err := session.Submit()
		if err != nil {
			emit(errorMessage(err))
			return
		}
		// The score goes out before the write; a failed write never hides it.
		emit(outboundMessage[any]{Type: "result", Payload: result})
		h.record(ctx, session, emit)

	case "record":
		// retry after recorded:false; repeats return the stored attempt
		if _, ok := session.Result(); !ok {
			emit(errorMessage(domain.ErrNotSubmitted))
			return
		}
		h.record(ctx, session, emit)

	default:
		emit(errorMessage(errors.New("unsupported message type")))
	}
}

func (h *PlayHandler) record(ctx context.Context, session *app.PlaySession, emit func(outboundMessage[any])) {
	record, err := session.Record(ctx)
	if err != nil {
		emit(outboundMessage[any]{Type: "recorded", Payload: recordedPayload{
			Recorded: false,
			Message:  "your score could not be saved",
		}})
		return
	}
	emit(outboundMessage[any]{Type: "recorded", Payload: recordedPayload{
		Recorded:  true,
		AttemptID: record.ID,
	}})
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
