package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/openexam/examportal-backend/internal/middleware"
	"github.com/openexam/examportal-backend/internal/service"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler streams a server-anchored exam countdown over WebSocket.
// Clients that distrust their local clock can pace their countdown against
// these frames. Like the client countdown, this is advisory: scoring is the
// only integrity boundary.
type WSHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// clockFrame is one countdown message.
type clockFrame struct {
	RemainingSeconds int `json:"remaining_seconds"`
}

// ExamClockStream godoc
// WS /ws/v1/exam/:paper_id/clock?token=...
// Sends one frame per second from the paper duration down to zero, then
// closes. The countdown is anchored to the moment of connection.
func (h *WSHandler) ExamClockStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	paperID, err := strconv.Atoi(c.Param("paper_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paper ID"})
		return
	}

	payload, err := h.examService.GetExam(c.Request.Context(), paperID, "")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Int("paper_id", paperID).
		Logger()
	wsLog.Info().Msg("Clock stream connected")

	remaining := payload.Paper.DurationMinutes * 60
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Discard inbound frames so pings and client closes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for remaining >= 0 {
		if err := conn.WriteJSON(clockFrame{RemainingSeconds: remaining}); err != nil {
			wsLog.Debug().Msg("Clock stream closed")
			return
		}
		if remaining == 0 {
			break
		}
		select {
		case <-ticker.C:
			remaining--
		case <-c.Request.Context().Done():
			return
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "time up"))
}
