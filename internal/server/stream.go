package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/ringline/ringline/internal/call"
)

// streamReadLimit caps a single transcript frame. STT fragments are short
// utterances; anything larger is a misbehaving client.
const streamReadLimit = 64 * 1024

// handleStream upgrades the connection to a WebSocket and feeds each text
// frame to the call's classifier. Every frame is answered with the
// JSON-encoded result; handler errors are answered with a JSON error object
// on the same socket. Closing the socket ends the call.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	callID := r.PathValue("callID")

	session, err := s.manager.Begin(r.Context(), callID)
	if err != nil {
		if errors.Is(err, call.ErrCallActive) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("stream: websocket accept failed", "call_id", callID, "err", err)
		_ = s.manager.End(context.WithoutCancel(r.Context()), callID)
		return
	}
	conn.SetReadLimit(streamReadLimit)

	// The request context is cancelled once this handler returns; end the
	// call on a detached context so the teardown always lands.
	defer func() {
		_ = s.manager.End(context.WithoutCancel(r.Context()), callID)
		_ = conn.CloseNow()
	}()

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Debug("stream: client closed", "call_id", callID)
			} else {
				slog.Debug("stream: read ended", "call_id", callID, "err", err)
			}
			return
		}
		if typ != websocket.MessageText {
			_ = conn.Close(websocket.StatusUnsupportedData, "text frames only")
			return
		}

		res, err := session.HandleFragment(ctx, string(data))
		var payload []byte
		if err != nil {
			payload, _ = json.Marshal(errorResponse{Error: err.Error()})
		} else {
			payload, _ = json.Marshal(res)
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			slog.Debug("stream: write failed", "call_id", callID, "err", err)
			return
		}
	}
}
