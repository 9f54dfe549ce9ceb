package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/medprep/medmcq-backend/internal/middleware"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/quiz"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/medprep/medmcq-backend/internal/validator"
	ws "github.com/medprep/medmcq-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler drives practice runs over a WebSocket.
type WSHandler struct {
	practiceService *service.PracticeService
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(practiceService *service.PracticeService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		practiceService: practiceService,
		log:             log.With().Str("component", "ws_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// stream is the per-connection state. The run pointer is shared between the
// read loop and the goroutine that finishes a start.
type stream struct {
	h      *WSHandler
	conn   *ws.Conn
	userID int
	log    zerolog.Logger
	guard  quiz.FetchGuard

	mu    sync.Mutex
	runID uuid.UUID
}

// PracticeStream godoc
// WS /ws/v1/practice
// Upgrades to WebSocket. Clients send intents and receive the rendered run.
func (h *WSHandler) PracticeStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	// Fetches outlive the HTTP request context once upgraded.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &stream{
		h:      h,
		conn:   conn,
		userID: claims.UserID,
		log:    h.log.With().Int("user_id", claims.UserID).Logger(),
	}
	defer s.guard.Cancel()

	s.log.Info().Msg("Practice stream connected")

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				s.log.Debug().Msg("Connection closed")
			}
			return
		}
		s.dispatch(ctx, &msg)
	}
}

func (s *stream) dispatch(ctx context.Context, msg *ws.RequestPayload) {
	switch msg.Action {
	case ws.ActionPing:
		s.conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
	case ws.ActionStart:
		s.start(ctx, msg)
	case ws.ActionResume:
		s.resume(ctx, msg)
	case ws.ActionSelect:
		s.selectAnswer(ctx, msg)
	case ws.ActionNavigate:
		dir, err := quiz.ParseDirection(msg.Direction)
		if err != nil {
			s.fail(err)
			return
		}
		s.apply(ctx, func(runID uuid.UUID) (*model.PracticeView, error) {
			return s.h.practiceService.Navigate(ctx, s.userID, runID, dir)
		})
	case ws.ActionReview:
		s.apply(ctx, func(runID uuid.UUID) (*model.PracticeView, error) {
			return s.h.practiceService.EnterReview(ctx, s.userID, runID)
		})
	case ws.ActionExitReview:
		s.apply(ctx, func(runID uuid.UUID) (*model.PracticeView, error) {
			return s.h.practiceService.ExitReview(ctx, s.userID, runID)
		})
	case ws.ActionRestart:
		s.apply(ctx, func(runID uuid.UUID) (*model.PracticeView, error) {
			return s.h.practiceService.Restart(ctx, s.userID, runID, msg.Confirm)
		})
	default:
		s.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		s.conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
	}
}

// start acknowledges immediately and fetches in the background. A newer
// start, or the connection closing, discards the result.
func (s *stream) start(ctx context.Context, msg *ws.RequestPayload) {
	if !validator.IsModuleID(msg.ModuleID) || msg.Limit < 0 {
		s.conn.WriteError(string(response.ErrValidation), "module_id is required and limit must not be negative")
		return
	}

	fctx, ticket := s.guard.Begin(ctx, msg.ModuleID)
	s.conn.WriteTyped(ws.LoadingResponse{Event: ws.EventLoading, ModuleID: msg.ModuleID})

	moduleID, limit := msg.ModuleID, msg.Limit
	go func() {
		questions, err := s.h.practiceService.Fetch(fctx, s.userID, moduleID, limit)
		if !s.guard.Accept(ticket) {
			s.log.Debug().Str("module_id", moduleID).Msg("Discarded superseded fetch")
			return
		}
		if err != nil {
			s.fail(err)
			return
		}

		view, err := s.h.practiceService.Launch(ctx, s.userID, moduleID, limit, questions)
		if err != nil {
			s.fail(err)
			return
		}
		if !s.guard.Commit(ticket, func() { s.setRun(view.RunID) }) {
			s.discard(ctx, view.RunID)
			return
		}
		s.conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: view, Warnings: view.Warnings})
	}()
}

// discard ends a run whose start was superseded while it launched.
func (s *stream) discard(ctx context.Context, runID string) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return
	}
	if _, err := s.h.practiceService.End(context.WithoutCancel(ctx), s.userID, id); err != nil {
		s.log.Warn().Err(err).Str("run_id", runID).Msg("Failed to end superseded run")
		return
	}
	s.log.Debug().Str("run_id", runID).Msg("Ended run superseded during launch")
}

func (s *stream) resume(ctx context.Context, msg *ws.RequestPayload) {
	runID, err := uuid.Parse(msg.RunID)
	if err != nil {
		s.conn.WriteError(string(response.ErrInvalidID), response.GetMessage(response.ErrInvalidID))
		return
	}
	view, err := s.h.practiceService.Get(ctx, s.userID, runID)
	if err != nil {
		s.fail(err)
		return
	}
	s.guard.Cancel()
	s.setRun(view.RunID)
	s.conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: view})
}

func (s *stream) selectAnswer(ctx context.Context, msg *ws.RequestPayload) {
	runID, ok := s.currentRun()
	if !ok {
		s.fail(service.ErrRunNotFound)
		return
	}
	if msg.Position == nil {
		s.conn.WriteError(string(response.ErrValidation), "position is required")
		return
	}

	view, err := s.h.practiceService.Answer(ctx, s.userID, runID, *msg.Position)
	if err != nil {
		s.fail(err)
		return
	}
	if !view.Changed || view.Question == nil || view.Question.Correct == nil {
		s.conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: view, Warnings: view.Warnings})
		return
	}
	s.conn.WriteTyped(ws.FeedbackResponse{
		Event:    ws.EventFeedback,
		Correct:  *view.Question.Correct,
		State:    view,
		Warnings: view.Warnings,
	})
}

func (s *stream) apply(ctx context.Context, op func(uuid.UUID) (*model.PracticeView, error)) {
	runID, ok := s.currentRun()
	if !ok {
		s.fail(service.ErrRunNotFound)
		return
	}
	view, err := op(runID)
	if err != nil {
		s.fail(err)
		return
	}
	s.setRun(view.RunID)
	s.conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: view, Warnings: view.Warnings})
}

// fail reports err. Refusals that leave the run untouched are notices.
func (s *stream) fail(err error) {
	status, code := errorStatus(err)
	if errors.Is(err, quiz.ErrNoIncorrectAnswers) || errors.Is(err, quiz.ErrRestartNotConfirmed) {
		s.conn.WriteTyped(ws.NoticeResponse{Event: ws.EventNotice, Code: string(code), Message: response.GetMessage(code)})
		return
	}
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Practice intent failed")
	}
	s.conn.WriteError(string(code), response.GetMessage(code))
}

func (s *stream) currentRun() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID, s.runID != uuid.Nil
}

func (s *stream) setRun(runID string) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.runID = id
	s.mu.Unlock()
}
