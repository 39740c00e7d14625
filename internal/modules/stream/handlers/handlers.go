// Package handlers serves the tracker event stream over websocket.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/signal"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/stream"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/tracker"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const snapshotTimeout = 5 * time.Second

// SignalSource computes the committee signal sent on connect.
type SignalSource interface {
	Compute(ctx context.Context, kind signal.ScoreKind) (signal.Signal, error)
}

// Handler upgrades stream requests and hands the connection to the hub
type Handler struct {
	hub     *stream.Hub
	signals SignalSource
	log     zerolog.Logger
}

// NewHandler creates a new stream handler. signals may be nil, in which
// case no snapshot is sent on connect.
func NewHandler(hub *stream.Hub, signals SignalSource, log zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		signals: signals,
		log:     log.With().Str("handler", "stream").Logger(),
	}
}

// HandleStream handles GET /api/stream
// The client receives the current overall signal, then every event the
// tracker publishes. Messages from the client are ignored.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	// Server read and write deadlines survive the hijack.
	rc := http.NewResponseController(w)
	if err := rc.SetReadDeadline(time.Time{}); err != nil {
		h.log.Debug().Err(err).Msg("Failed to clear read deadline")
	}
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.log.Debug().Err(err).Msg("Failed to clear write deadline")
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to accept websocket")
		return
	}

	// CloseRead discards client frames and cancels ctx once the peer goes away.
	ctx := conn.CloseRead(context.Background())

	if err := h.sendSnapshot(ctx, conn); err != nil {
		h.log.Debug().Err(err).Msg("Failed to send stream snapshot")
		conn.Close(websocket.StatusInternalError, "snapshot failed")
		return
	}

	if err := h.hub.Register(conn); err != nil {
		code := websocket.StatusTryAgainLater
		if errors.Is(err, stream.ErrHubStopped) {
			code = websocket.StatusGoingAway
		}
		conn.Close(code, err.Error())
		return
	}

	<-ctx.Done()
	h.hub.Unregister(conn)
}

func (h *Handler) sendSnapshot(ctx context.Context, conn *websocket.Conn) error {
	if h.signals == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	sig, err := h.signals.Compute(ctx, signal.KindOverall)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, h.hub.NewEvent(tracker.EventSignal, sig))
}
