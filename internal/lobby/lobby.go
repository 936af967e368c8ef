package lobby

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/promptparty/internal/engine"
)

var ErrRoomClosed = errors.New("room closed")

type Msg interface{ isLobbyMsg() }

// FromClient carries a command from a joined client. Player is filled in by
// the lobby from the client id.
type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Name     string
	Outbox   chan []byte // frames for this client
	Reply    chan error
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// timer messages
type roundTimeout struct{ round int }
type nextRound struct{ round int }
type imageReady struct{ round int }

func (roundTimeout) isLobbyMsg() {}
func (nextRound) isLobbyMsg()    {}
func (imageReady) isLobbyMsg()   {}

type View struct {
	NumClients int
	Timers     int
	State      engine.State
}

type Options struct {
	Clock          clockwork.Clock
	Logger         *zap.Logger
	PostRoundDelay time.Duration
	ImageDelay     time.Duration
	PickPrompt     func() string
	OnEmpty        func() // called from the loop when the last client leaves
}

type member struct {
	name   string
	outbox chan []byte
}

type Lobby struct {
	inbox   chan Msg
	state   engine.State
	clients map[string]*member
	order   []string // client ids in join order
	dropped []string // names of clients dropped during a broadcast
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	clock      clockwork.Clock
	log        *zap.Logger
	opts       Options
	roundStart time.Time
	timers     []clockwork.Timer
}

func NewLobby(parent context.Context, initial engine.State, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PickPrompt == nil {
		opts.PickPrompt = func() string { return engine.Prompts[rand.Intn(len(engine.Prompts))] }
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64), // Small buffer
		state:   initial,
		clients: make(map[string]*member),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		clock:   opts.Clock,
		log:     opts.Logger.Named("lobby").With(zap.String("room", initial.RoomID)),
		opts:    opts,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.handleJoin(msg)

			case Leave:
				l.handleLeave(msg.ClientID)

			case FromClient:
				mem, ok := l.clients[msg.ClientID]
				if !ok {
					break
				}
				cmd := msg.Cmd
				cmd.Player = mem.name
				cmd.Elapsed = l.clock.Since(l.roundStart)
				if cmd.Type == engine.CmdStartGame {
					cmd.Prompt = l.opts.PickPrompt()
				}
				if err := l.apply(cmd); err != nil {
					l.log.Debug("command rejected", zap.String("player", mem.name), zap.String("cmd", string(cmd.Type)), zap.Error(err))
				}

			case roundTimeout:
				_ = l.apply(engine.Command{Type: engine.CmdRoundTimeout, Round: msg.round})

			case nextRound:
				_ = l.apply(engine.Command{Type: engine.CmdNextRound, Round: msg.round, Prompt: l.opts.PickPrompt()})

			case imageReady:
				_ = l.apply(engine.Command{
					Type:  engine.CmdSetImage,
					Round: msg.round,
					Text:  placeholderImage(l.state.Prompt, msg.round),
				})

			case GetState:
				// test-only: reflect internal state without data races
				msg.Reply <- View{
					NumClients: len(l.clients),
					Timers:     len(l.timers),
					State:      l.state,
				}

			case Shutdown:
				l.shutdown()
				return
			}
			l.flushDropped()
		}
	}
}

func (l *Lobby) handleJoin(msg Join) {
	events, next, err := engine.Apply(l.state, engine.Command{Type: engine.CmdJoin, Player: msg.Name})
	if err != nil {
		msg.Reply <- err
		return
	}
	l.state = next
	l.clients[msg.ClientID] = &member{name: msg.Name, outbox: msg.Outbox}
	l.order = append(l.order, msg.ClientID)
	msg.Reply <- nil
	l.log.Info("player joined", zap.String("player", msg.Name), zap.Int("players", len(l.state.Players)))
	l.emit(events)
}

func (l *Lobby) handleLeave(clientID string) {
	mem, ok := l.clients[clientID]
	if !ok {
		return
	}
	l.removeClient(clientID)
	close(mem.outbox)
	l.removePlayer(mem.name)
}

func (l *Lobby) removePlayer(name string) {
	events, next, err := engine.Apply(l.state, engine.Command{Type: engine.CmdLeave, Player: name})
	if err != nil {
		return
	}
	l.state = next
	l.log.Info("player left", zap.String("player", name), zap.Int("players", len(l.state.Players)))
	if len(l.state.Players) == 0 {
		l.stopTimers()
	}
	l.emit(events)
	if len(l.clients) == 0 && l.opts.OnEmpty != nil {
		l.opts.OnEmpty()
	}
}

// flushDropped removes players whose outbox overflowed.
func (l *Lobby) flushDropped() {
	for len(l.dropped) > 0 {
		name := l.dropped[0]
		l.dropped = l.dropped[1:]
		l.removePlayer(name)
	}
}

func (l *Lobby) apply(cmd engine.Command) error {
	events, next, err := engine.Apply(l.state, cmd)
	if err != nil {
		return err
	}
	l.state = next
	l.emit(events)
	return nil
}

func (l *Lobby) removeClient(id string) {
	delete(l.clients, id)
	for i, cid := range l.order {
		if cid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *Lobby) shutdown() {
	l.stopTimers()
	for _, id := range l.order {
		close(l.clients[id].outbox) // Tell client no more frames
		delete(l.clients, id)
	}
	l.order = nil
	l.cancel()
}

func (l *Lobby) send(name string, frame []byte) {
	for _, id := range l.order {
		if l.clients[id].name == name {
			l.deliver(id, frame)
			return
		}
	}
}

func (l *Lobby) broadcast(frame []byte) {
	for _, id := range append([]string(nil), l.order...) {
		l.deliver(id, frame)
	}
}

func (l *Lobby) deliver(id string, frame []byte) {
	mem, ok := l.clients[id]
	if !ok {
		return
	}
	select {
	case mem.outbox <- frame:
		//ok
	default:
		// Client is slow/full - drop them.
		l.log.Warn("dropping slow client", zap.String("player", mem.name))
		close(mem.outbox)
		l.removeClient(id)
		l.dropped = append(l.dropped, mem.name)
	}
}

func (l *Lobby) after(d time.Duration, m Msg) {
	l.timers = append(l.timers, l.clock.AfterFunc(d, func() { l.post(m) }))
}

func (l *Lobby) stopTimers() {
	for _, t := range l.timers {
		t.Stop()
	}
	l.timers = nil
}

func (l *Lobby) post(m Msg) {
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed when the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.done }
