package client

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/promptparty/internal/countdown"
	"github.com/DoyleJ11/promptparty/internal/metrics"
	"github.com/DoyleJ11/promptparty/internal/router"
	"github.com/DoyleJ11/promptparty/internal/session"
	"github.com/DoyleJ11/promptparty/internal/transport"
	"github.com/DoyleJ11/promptparty/pkg/types"
)

var ErrClosed = errors.New("client closed")

type ConnState int

const (
	Closed ConnState = iota
	Connecting
	Open
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	default:
		return "closed"
	}
}

// RoomCreator mints a room id before connecting.
type RoomCreator interface {
	Create(ctx context.Context) (string, error)
}

type Options struct {
	URL          string // websocket endpoint
	Dialer       transport.Dialer
	Rooms        RoomCreator
	Clock        clockwork.Clock
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Observer     Observer
	WriteTimeout time.Duration
	OutboxSize   int
}

// inbox messages
type msg interface{ isClientMsg() }

type connectReq struct{ room, name string }
type disconnectReq struct{}
type sendReq struct {
	kind    types.Kind
	payload any
}
type dialed struct {
	gen  uint64
	conn transport.Conn
	err  error
}
type frameIn struct {
	gen  uint64
	data []byte
}
type connClosed struct {
	gen uint64
	err error
}
type tick struct{ gen uint64 }
type getState struct{ reply chan View }

func (connectReq) isClientMsg()    {}
func (disconnectReq) isClientMsg() {}
func (sendReq) isClientMsg()       {}
func (dialed) isClientMsg()        {}
func (frameIn) isClientMsg()       {}
func (connClosed) isClientMsg()    {}
func (tick) isClientMsg()          {}
func (getState) isClientMsg()      {}

// View is a consistent read of the client taken on the event loop.
type View struct {
	State session.State
	Conn  ConnState
}

// connection is the live transport and the goroutines serving it.
type connection struct {
	id     string
	gen    uint64
	room   string
	conn   transport.Conn
	outbox chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

// Client is one player's session with the game server. All state lives on
// a single event loop goroutine; the exported methods only post to it.
type Client struct {
	opts    Options
	log     *zap.Logger
	metrics *metrics.Metrics
	obs     Observer
	router  *router.Router
	timer   *countdown.Countdown

	inbox  chan msg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// owned by loop
	state     session.State
	connState ConnState
	gen       uint64
	cur       *connection
}

func New(parent context.Context, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Dialer == nil {
		opts.Dialer = transport.WebsocketDialer{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 16
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Client{
		opts:    opts,
		log:     opts.Logger.Named("client"),
		metrics: opts.Metrics,
		obs:     opts.Observer,
		router:  router.New(opts.Logger, opts.Metrics),
		inbox:   make(chan msg, 64),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   session.Unconnected(),
	}
	c.timer = countdown.New(opts.Clock, func(gen uint64) { c.post(tick{gen: gen}) })

	go c.loop()
	return c
}

// Connect joins room as name. It is a no-op while a connection is being
// opened or is open.
func (c *Client) Connect(room, name string) { c.post(connectReq{room: room, name: name}) }

// Disconnect tears the session down and sends the UI home.
func (c *Client) Disconnect() { c.post(disconnectReq{}) }

// CreateAndConnect mints a room and joins it. A failed mint leaves the
// session untouched.
func (c *Client) CreateAndConnect(ctx context.Context, name string) (string, error) {
	if c.opts.Rooms == nil {
		return "", errors.New("no room creator configured")
	}
	room, err := c.opts.Rooms.Create(ctx)
	if err != nil {
		return "", err
	}
	c.Connect(room, name)
	return room, nil
}

// Send queues an action for the server. Actions sent while the connection is
// not open are dropped.
func (c *Client) Send(kind types.Kind, payload any) { c.post(sendReq{kind: kind, payload: payload}) }

func (c *Client) StartGame() { c.Send(types.KindStartGame, types.StartGamePayload{}) }

func (c *Client) Guess(text string) {
	c.Send(types.KindNewGuess, types.NewGuessPayload{Guess: text})
}

// View returns the current state and connection state.
func (c *Client) View() (View, error) {
	reply := make(chan View, 1)
	select {
	case c.inbox <- getState{reply: reply}:
	case <-c.done:
		return View{}, ErrClosed
	}
	select {
	case v := <-reply:
		return v, nil
	case <-c.done:
		return View{}, ErrClosed
	}
}

func (c *Client) Snapshot() session.State {
	v, _ := c.View()
	return v.State
}

func (c *Client) ConnState() ConnState {
	v, _ := c.View()
	return v.Conn
}

// Ready reports whether actions will reach the transport.
func (c *Client) Ready() bool { return c.ConnState() == Open }

// Close stops the event loop and drops any connection without notifying the
// observer.
func (c *Client) Close() {
	c.cancel()
	<-c.done
}

// Done is closed once the event loop has exited.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) post(m msg) {
	select {
	case c.inbox <- m:
	case <-c.ctx.Done():
	}
}

func (c *Client) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.shutdown()
			return

		case m := <-c.inbox:
			switch m := m.(type) {
			case connectReq:
				c.handleConnect(m)
			case disconnectReq:
				c.handleDisconnect()
			case sendReq:
				c.dispatch(m.kind, m.payload)
			case dialed:
				c.handleDialed(m)
			case frameIn:
				c.handleFrame(m)
			case connClosed:
				c.handleClosed(m)
			case tick:
				c.handleTick(m)
			case getState:
				m.reply <- View{State: c.state, Conn: c.connState}
			}
		}
	}
}

func (c *Client) handleConnect(m connectReq) {
	if c.connState != Closed {
		c.log.Debug("connect ignored", zap.Stringer("conn", c.connState), zap.String("room", m.room))
		return
	}

	c.gen++
	ctx, cancel := context.WithCancel(c.ctx)
	c.cur = &connection{
		id:     uuid.NewString(),
		gen:    c.gen,
		room:   m.room,
		outbox: make(chan []byte, c.opts.OutboxSize),
		ctx:    ctx,
		cancel: cancel,
	}
	c.connState = Connecting
	c.setState(session.New(m.name))

	c.log.Info("connecting",
		zap.String("conn_id", c.cur.id),
		zap.String("room", m.room),
		zap.String("player", m.name),
		zap.String("url", c.opts.URL))

	gen, url := c.gen, c.opts.URL
	go func() {
		conn, err := c.opts.Dialer.Dial(ctx, url)
		c.post(dialed{gen: gen, conn: conn, err: err})
	}()
}

func (c *Client) handleDialed(m dialed) {
	if c.cur == nil || m.gen != c.cur.gen {
		if m.conn != nil {
			_ = m.conn.Close()
		}
		return
	}
	if m.err != nil {
		c.metrics.Connection("failed")
		c.log.Error("connect failed", zap.String("conn_id", c.cur.id), zap.Error(m.err))
		c.teardown()
		return
	}

	c.metrics.Connection("opened")
	cur := c.cur
	cur.conn = m.conn
	c.connState = Open
	c.log.Info("connected", zap.String("conn_id", cur.id))

	go c.readLoop(cur)
	go c.writeLoop(cur)

	c.dispatch(types.KindJoinRoom, types.JoinRoomPayload{RoomID: cur.room, PlayerName: c.state.PlayerName})
}

func (c *Client) handleFrame(m frameIn) {
	if c.cur == nil || m.gen != c.cur.gen {
		c.log.Debug("dropping frame from superseded connection", zap.Uint64("gen", m.gen))
		return
	}

	message, ok := c.router.Decode(m.data)
	if !ok {
		return
	}
	if ja, isJoin := message.(session.JoinAccepted); isJoin && ja.RoomID == "" {
		ja.RoomID = c.cur.room
		message = ja
	}

	next, eff := c.router.Dispatch(c.state, message)
	c.setState(next)
	c.apply(eff)
}

func (c *Client) apply(eff session.Effects) {
	switch eff.Timer {
	case session.TimerArm:
		c.timer.Arm()
	case session.TimerStop:
		c.timer.Stop()
	}
	if eff.Navigate != session.RouteNone {
		c.obs.OnNavigate(eff.Navigate)
	}
	if eff.Alert != "" {
		c.obs.OnAlert(eff.Alert)
	}
	if eff.Disconnect {
		c.handleDisconnect()
	}
}

func (c *Client) handleClosed(m connClosed) {
	if c.cur == nil || m.gen != c.cur.gen {
		return
	}
	switch {
	case m.err == nil, transport.IsNormalClose(m.err):
		c.log.Info("connection closed", zap.String("conn_id", c.cur.id))
	default:
		c.log.Error("connection lost", zap.String("conn_id", c.cur.id), zap.Error(m.err))
	}
	c.metrics.Connection("closed")
	c.teardown()
}

func (c *Client) handleDisconnect() {
	if c.connState == Closed {
		return
	}
	c.log.Info("disconnecting", zap.String("conn_id", c.cur.id))
	c.teardown()
}

func (c *Client) handleTick(m tick) {
	if m.gen != c.timer.Current() {
		return
	}
	next := c.state.Tick()
	if next.Countdown == c.state.Countdown {
		return
	}
	c.setState(next)
}

// teardown drops the current connection, resets the session and sends the
// UI home. Anything still in flight from the old connection is stale.
func (c *Client) teardown() {
	c.dropConnection()
	c.setState(session.Unconnected())
	c.obs.OnNavigate(session.RouteHome)
}

func (c *Client) dropConnection() {
	c.timer.Stop()
	c.gen++
	if cur := c.cur; cur != nil {
		cur.cancel()
		if cur.conn != nil {
			_ = cur.conn.Close()
		}
		c.cur = nil
	}
	c.connState = Closed
}

func (c *Client) shutdown() {
	c.dropConnection()
}

func (c *Client) setState(s session.State) {
	c.state = s
	c.obs.OnState(s)
}

func (c *Client) readLoop(cur *connection) {
	for {
		data, err := cur.conn.Read(cur.ctx)
		if errors.Is(err, transport.ErrBinaryFrame) {
			c.metrics.FrameMalformed()
			c.log.Warn("dropping non-text frame", zap.String("conn_id", cur.id))
			continue
		}
		if err != nil {
			c.post(connClosed{gen: cur.gen, err: err})
			return
		}
		c.post(frameIn{gen: cur.gen, data: data})
	}
}

func (c *Client) writeLoop(cur *connection) {
	for {
		select {
		case <-cur.ctx.Done():
			return
		case frame := <-cur.outbox:
			wctx, cancel := context.WithTimeout(cur.ctx, c.opts.WriteTimeout)
			err := cur.conn.Write(wctx, frame)
			cancel()
			if err != nil {
				c.post(connClosed{gen: cur.gen, err: err})
				return
			}
		}
	}
}
