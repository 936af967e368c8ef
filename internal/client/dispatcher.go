package client

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/promptparty/pkg/types"
)

// dispatch serializes an action and hands it to the connection writer.
// Nothing is retried and nothing is reported back to the caller.
func (c *Client) dispatch(kind types.Kind, payload any) {
	if c.connState != Open || c.cur == nil {
		c.metrics.ActionDropped(string(kind), "not_open")
		c.log.Debug("action dropped, connection not open", zap.String("kind", string(kind)), zap.Stringer("conn", c.connState))
		return
	}

	frame, err := types.Encode(kind, payload)
	if err != nil {
		c.metrics.ActionDropped(string(kind), "encode")
		c.log.Error("action dropped, encode failed", zap.String("kind", string(kind)), zap.Error(err))
		return
	}

	select {
	case c.cur.outbox <- frame:
		c.metrics.ActionSent(string(kind))
		c.log.Debug("action queued", zap.String("kind", string(kind)), zap.Int("bytes", len(frame)))
	default:
		c.metrics.ActionDropped(string(kind), "outbox_full")
		c.log.Warn("action dropped, outbox full", zap.String("kind", string(kind)))
	}
}
