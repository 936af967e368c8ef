package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/promptparty/internal/engine"
	"github.com/DoyleJ11/promptparty/internal/hub"
	"github.com/DoyleJ11/promptparty/internal/lobby"
	"github.com/DoyleJ11/promptparty/pkg/types"
)

const (
	joinTimeout  = 10 * time.Second
	readTimeout  = 5 * time.Minute
	writeTimeout = 3 * time.Second
	outboxSize   = 32
)

// Handler serves /ws/game. The first frame must be join_room; the room is
// created on demand. Cross-origin upgrades are refused unless the Origin
// host matches one of originPatterns.
func Handler(h *hub.Hub, log *zap.Logger, originPatterns ...string) http.HandlerFunc {
	log = log.Named("ws")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Debug("upgrade refused", zap.String("origin", r.Header.Get("Origin")), zap.Error(err))
			return
		}
		defer conn.CloseNow()
		conn.SetReadLimit(64 << 10)

		join, ok := readJoin(r.Context(), conn)
		if !ok {
			conn.Close(websocket.StatusPolicyViolation, "first message must be join_room")
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.EnsureRoom{Code: join.RoomID, Reply: reply}
		lb := <-reply

		clientID := uuid.NewString()
		out := make(chan []byte, outboxSize)
		joined := make(chan error, 1)
		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Name: join.PlayerName, Outbox: out, Reply: joined}:
		case <-lb.Done():
			reject(r.Context(), conn, lobby.ErrRoomClosed)
			return
		}
		select {
		case err = <-joined:
		case <-lb.Done():
			err = lobby.ErrRoomClosed
		}
		if err != nil {
			log.Info("join rejected", zap.String("room", join.RoomID), zap.String("player", join.PlayerName), zap.Error(err))
			reject(r.Context(), conn, err)
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for frame := range out {
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				err := conn.Write(ctx, websocket.MessageText, frame)
				cancel()
				if err != nil {
					conn.CloseNow()
					return
				}
			}
			// outbox closed: dropped as slow or room closed
			conn.Close(websocket.StatusGoingAway, "room closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read failed", zap.String("player", join.PlayerName), zap.Error(err))
				}
				return
			}

			cmd, ok := toEngineCommand(data)
			if !ok {
				log.Debug("ignoring client frame", zap.String("player", join.PlayerName), zap.Int("bytes", len(data)))
				continue
			}
			select {
			case lb.Inbox() <- lobby.FromClient{ClientID: clientID, Cmd: cmd}:
			case <-lb.Done():
				return
			}
		}
	}
}

func readJoin(ctx context.Context, conn *websocket.Conn) (types.JoinRoomPayload, bool) {
	ctx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		return types.JoinRoomPayload{}, false
	}
	var env types.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != types.KindJoinRoom {
		return types.JoinRoomPayload{}, false
	}
	var p types.JoinRoomPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil || p.RoomID == "" || p.PlayerName == "" {
		return types.JoinRoomPayload{}, false
	}
	return p, true
}

// reject reports err as a top-level error message, then closes.
func reject(ctx context.Context, conn *websocket.Conn, err error) {
	b, _ := json.Marshal(types.Envelope{Type: types.KindError, Message: err.Error()})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, b)
	conn.Close(websocket.StatusNormalClosure, err.Error())
}

func toEngineCommand(data []byte) (engine.Command, bool) {
	var env types.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return engine.Command{}, false
	}

	switch env.Type {
	case types.KindStartGame:
		return engine.Command{Type: engine.CmdStartGame}, true
	case types.KindNewGuess:
		var p types.NewGuessPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.Guess == "" {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdGuess, Text: p.Guess}, true
	default:
		return engine.Command{}, false
	}
}
