package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DoyleJ11/promptparty/internal/session"
	"github.com/DoyleJ11/promptparty/internal/transport"
)

var errConnClosed = errors.New("fake conn closed")

// fakeConn plays the server side. Read deliberately ignores ctx so that a
// closed connection reports its close after the client has moved on.
type fakeConn struct {
	in      chan fakeRead
	written chan []byte
	closed  chan struct{}
	once    sync.Once
	failErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan fakeRead, 16),
		written: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case r := <-f.in:
		return r.data, r.err
	case <-f.closed:
		if f.failErr != nil {
			return nil, f.failErr
		}
		return nil, errConnClosed
	}
}

func (f *fakeConn) Write(ctx context.Context, frame []byte) error {
	select {
	case <-f.closed:
		return errConnClosed
	default:
	}
	f.written <- frame
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

type fakeRead struct {
	data []byte
	err  error
}

// push delivers a server frame.
func (f *fakeConn) push(frame string) { f.in <- fakeRead{data: []byte(frame)} }

// pushBinary delivers a message the transport rejects as non-text.
func (f *fakeConn) pushBinary() { f.in <- fakeRead{err: transport.ErrBinaryFrame} }

type fakeDialer struct {
	mu    sync.Mutex
	dials int
	err   error
	gate  chan struct{} // when set, Dial waits for it to close
	conns chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 4)}
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (transport.Conn, error) {
	d.mu.Lock()
	d.dials++
	err, gate := d.err, d.gate
	d.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	c := newFakeConn()
	d.conns <- c
	return c, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// recorder is an Observer that forwards everything to buffered channels.
type recorder struct {
	states chan session.State
	routes chan session.Route
	alerts chan string
	events chan string // "alert" and "navigate:<route>" in call order
}

func newRecorder() *recorder {
	return &recorder{
		states: make(chan session.State, 256),
		routes: make(chan session.Route, 64),
		alerts: make(chan string, 16),
		events: make(chan string, 64),
	}
}

func (r *recorder) OnState(s session.State) { r.states <- s }
func (r *recorder) OnNavigate(rt session.Route) {
	r.routes <- rt
	r.events <- "navigate:" + string(rt)
}
func (r *recorder) OnAlert(m string) {
	r.alerts <- m
	r.events <- "alert"
}

func recvConn(t *testing.T, ch <-chan *fakeConn, within time.Duration) *fakeConn {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(within):
		t.Fatalf("timed out waiting for dial")
		return nil
	}
}

func recvFrame(t *testing.T, ch <-chan []byte, within time.Duration) []byte {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(within):
		t.Fatalf("timed out waiting for written frame")
		return nil
	}
}

func recvRoute(t *testing.T, ch <-chan session.Route, within time.Duration) session.Route {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(within):
		t.Fatalf("timed out waiting for navigation")
		return ""
	}
}

func recvAlert(t *testing.T, ch <-chan string, within time.Duration) string {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(within):
		t.Fatalf("timed out waiting for alert")
		return ""
	}
}

// waitState drains states until one satisfies ok.
func waitState(t *testing.T, ch <-chan session.State, within time.Duration, ok func(session.State) bool) session.State {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case s := <-ch:
			if ok(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state")
			return session.State{}
		}
	}
}

func noRoute(t *testing.T, ch <-chan session.Route, within time.Duration) {
	t.Helper()
	select {
	case r := <-ch:
		t.Fatalf("unexpected navigation to %q", r)
	case <-time.After(within):
	}
}
