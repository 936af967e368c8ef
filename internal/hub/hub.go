package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/promptparty/internal/engine"
	"github.com/DoyleJ11/promptparty/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Code  string
	Reply chan *lobby.Lobby
}

type GetRoom struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureRoom returns the room for Code, creating it if needed.
type EnsureRoom struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveRoom struct {
	Code string
	Room *lobby.Lobby // only remove if this is still the registered room
}

type ShutdownHub struct{}

type Count struct {
	Reply chan int
}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}
func (Count) isHubMsg()       {}

// Config is applied to every room the hub creates.
type Config struct {
	Rules engine.Rules
	Room  lobby.Options
}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*lobby.Lobby
	cfg    Config
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Room.Logger == nil {
		cfg.Room.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*lobby.Lobby),
		cfg:    cfg,
		log:    cfg.Room.Logger.Named("hub"),
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if lb := h.rooms[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.newRoom(msg.Code)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case EnsureRoom:
				if lb := h.rooms[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.newRoom(msg.Code)

			case RemoveRoom:
				lb := h.rooms[msg.Code]
				if lb == nil || (msg.Room != nil && lb != msg.Room) {
					break
				}
				delete(h.rooms, msg.Code)
				stop(lb)
				h.log.Info("room closed", zap.String("room", msg.Code))

			case Count:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				h.shutdown()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) newRoom(code string) *lobby.Lobby {
	opts := h.cfg.Room
	var lb *lobby.Lobby
	opts.OnEmpty = func() {
		// runs on the lobby's loop; hand off so neither actor blocks the other
		go h.post(RemoveRoom{Code: code, Room: lb})
	}
	lb = lobby.NewLobby(h.ctx, engine.NewRoom(code, h.cfg.Rules), opts)
	h.rooms[code] = lb
	h.log.Info("room created", zap.String("room", code))
	return lb
}

func (h *Hub) shutdown() {
	for _, lb := range h.rooms {
		stop(lb)
	}
	clear(h.rooms)
}

func stop(lb *lobby.Lobby) {
	select {
	case lb.Inbox() <- lobby.Shutdown{}:
	case <-lb.Done():
	}
}

func (h *Hub) post(m HubMsg) {
	select {
	case h.inbox <- m:
	case <-h.ctx.Done():
	}
}
