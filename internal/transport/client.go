package transport

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/park285/cheese-arena/pkg/arenadto"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// HeaderProvider supplies extra handshake headers.
type HeaderProvider func() map[string]string

// Client is a minimal arena protocol client used by probes and tests.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to an arena websocket endpoint. The handshake is bounded by ten
// seconds on top of ctx.
func Dial(ctx context.Context, wsURL string, headers HeaderProvider) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      buildHeaders(headers),
	})
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Send(ctx context.Context, typ string, payload any) error {
	return wsjson.Write(ctx, c.conn, arenadto.NewEvent(typ, payload))
}

func (c *Client) Next(ctx context.Context) (arenadto.Envelope, error) {
	var env arenadto.Envelope
	err := wsjson.Read(ctx, c.conn, &env)
	return env, err
}

// Await reads frames until one of type typ arrives.
func (c *Client) Await(ctx context.Context, typ string) (arenadto.Envelope, error) {
	for {
		env, err := c.Next(ctx)
		if err != nil {
			return env, err
		}
		if env.Type == typ {
			return env, nil
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

func buildHeaders(p HeaderProvider) http.Header {
	hdr := http.Header{}
	if p == nil {
		return hdr
	}
	for k, v := range p() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
