package transport

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/park285/cheese-arena/internal/metrics"
	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/pkg/arenadto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

type client struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

func (c *client) enqueue(b []byte, typ string) {
	select {
	case c.send <- b:
	default:
		metrics.DroppedFrames.Inc()
		obslog.L().Warn("ws_frame_dropped", zap.String("conn", c.id), zap.String("type", typ))
	}
}

func (c *client) readLoop(ctx context.Context, handler Handler) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == -1 && !errors.Is(err, context.Canceled) {
				obslog.L().Debug("ws_read_error", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}
		if handler == nil {
			continue
		}
		if typ != websocket.MessageText {
			handler.Malformed(c.id)
			continue
		}
		var env arenadto.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			handler.Malformed(c.id)
			continue
		}
		handler.Handle(c.id, env.Type, env.Payload)
	}
}

func (c *client) writeLoop(ctx context.Context, timeout time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, timeout)
			err := c.ws.Write(wctx, websocket.MessageText, b)
			cancel()
			if err != nil {
				obslog.L().Debug("ws_write_error", zap.String("conn", c.id), zap.Error(err))
				_ = c.ws.Close(websocket.StatusGoingAway, "write failure")
				return
			}
		}
	}
}

// pingLoop closes the connection after two consecutive missed pongs.
func (c *client) pingLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := c.ws.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				obslog.L().Info("ws_ping_timeout", zap.String("conn", c.id))
				_ = c.ws.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}
