package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

// writeTimeout bounds a single frame write.
const writeTimeout = 10 * time.Second

// OwnerReconciler reconciles every holding of one owner.
type OwnerReconciler interface {
	ReconcileOwner(ctx context.Context, ownerID string) ([]model.ReconciledHolding, error)
}

// StreamHandler pushes reconciled holdings over a websocket at the market
// cadence.
type StreamHandler struct {
	reconciler     OwnerReconciler
	cadence        market.Cadence
	originPatterns []string
	now            func() time.Time
	log            zerolog.Logger
}

// NewStreamHandler creates a StreamHandler. originPatterns lists the hosts
// allowed to open cross-origin connections.
func NewStreamHandler(reconciler OwnerReconciler, cadence market.Cadence, originPatterns []string, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		reconciler:     reconciler,
		cadence:        cadence,
		originPatterns: originPatterns,
		now:            time.Now,
		log:            log,
	}
}

// Stream upgrades the request and sends the caller's reconciled holdings
// immediately and then once per cadence interval. Frames are JSON text, or
// msgpack binary with ?format=msgpack. The loop ends when the client goes
// away; a reconciliation in flight at that point is discarded.
//
// Endpoint: GET /api/holding/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOf(w, r)
	if !ok {
		return
	}
	binary := r.URL.Query().Get("format") == "msgpack"

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	// Inbound frames are ignored; CloseRead cancels ctx once the peer closes.
	ctx := conn.CloseRead(r.Context())
	log := h.log.With().Str("owner", owner).Bool("msgpack", binary).Logger()
	log.Debug().Msg("stream opened")

	for {
		holdings, err := h.reconciler.ReconcileOwner(ctx, owner)
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			log.Error().Err(err).Msg("stream reconcile failed")
			conn.Close(websocket.StatusInternalError, "failed to load holdings")
			return
		}

		if err := h.write(ctx, conn, binary, holdings); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("stream write failed")
			}
			break
		}

		if !h.wait(ctx) {
			break
		}
	}

	log.Debug().Msg("stream closed")
	conn.Close(websocket.StatusNormalClosure, "")
}

// wait sleeps for the current cadence interval and reports false when ctx
// ends first.
func (h *StreamHandler) wait(ctx context.Context) bool {
	timer := time.NewTimer(h.cadence.Interval(h.now()))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (h *StreamHandler) write(ctx context.Context, conn *websocket.Conn, binary bool, holdings []model.ReconciledHolding) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if !binary {
		return wsjson.Write(ctx, conn, holdings)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(holdings); err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageBinary, buf.Bytes())
}
