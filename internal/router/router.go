package router

import (
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/promptparty/internal/metrics"
	"github.com/DoyleJ11/promptparty/internal/session"
)

// Router turns inbound frames into state transitions. It holds no state of
// its own; the caller owns the session and feeds frames in arrival order.
type Router struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(log *zap.Logger, m *metrics.Metrics) *Router {
	return &Router{log: log.Named("router"), metrics: m}
}

// Decode parses a frame, logging and counting anything it has to drop.
// ok is false when the frame must be ignored.
func (r *Router) Decode(frame []byte) (session.Message, bool) {
	msg, err := Decode(frame)
	switch {
	case errors.Is(err, ErrUnknownKind):
		r.metrics.FrameUnknown()
		r.log.Warn("ignoring unknown message kind", zap.String("kind", kindOf(frame)), zap.Error(err))
		return nil, false
	case err != nil:
		r.metrics.FrameMalformed()
		r.log.Error("dropping malformed frame", zap.Error(err), zap.Int("bytes", len(frame)))
		return nil, false
	}
	return msg, true
}

// Dispatch applies msg to s.
func (r *Router) Dispatch(s session.State, msg session.Message) (session.State, session.Effects) {
	r.metrics.FrameReceived(string(msg.Kind()))
	next, eff := session.Apply(s, msg)
	if eff.Ignored != "" {
		r.log.Warn("message had no effect", zap.String("kind", string(msg.Kind())), zap.String("reason", eff.Ignored))
	} else {
		r.log.Debug("message applied", zap.String("kind", string(msg.Kind())), zap.String("phase", string(next.Phase)))
	}
	return next, eff
}

// Route decodes and dispatches one frame. Frames that cannot be decoded
// leave s unchanged.
func (r *Router) Route(s session.State, frame []byte) (session.State, session.Effects) {
	msg, ok := r.Decode(frame)
	if !ok {
		return s, session.Effects{}
	}
	return r.Dispatch(s, msg)
}
