package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/cheese-arena/internal/transport"
	"github.com/park285/cheese-arena/pkg/arenadto"
	flag "github.com/spf13/pflag"
	"github.com/valyala/fasthttp"
)

func main() {
	base := flag.String("base", envOr("ARENA_BASE_URL", "http://localhost:3000"), "arena HTTP base URL")
	wsURL := flag.String("ws", os.Getenv("ARENA_WS_URL"), "arena websocket URL (default: derived from --base)")
	name := flag.String("name", "arenacheck", "display name to register with")
	flag.Parse()

	baseURL := strings.TrimRight(*base, "/")
	if body, err := get(baseURL + "/test"); err != nil {
		log.Fatalf("/test error: %v", err)
	} else {
		log.Printf("/test ok: %s", body)
	}

	body, err := get(baseURL + "/serverInfo")
	if err != nil {
		log.Printf("/serverInfo error: %v", err)
	} else {
		var info arenadto.ServerInfo
		if err := json.Unmarshal(body, &info); err != nil {
			log.Printf("/serverInfo decode error: %v", err)
		} else {
			log.Printf("/serverInfo ok: players=%d sessions=%d offers=%d", info.PlayersOnline, info.LiveSessions, info.OpenOffers)
		}
	}

	target := *wsURL
	if target == "" {
		target = "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := transport.Dial(ctx, target, nil)
	if err != nil {
		log.Fatalf("WS connect error: %v", err)
	}
	defer c.Close()

	if err := c.Send(ctx, arenadto.TypeRegister, arenadto.RegisterRequest{Name: *name}); err != nil {
		log.Fatalf("WS send error: %v", err)
	}
	env, err := c.Next(ctx)
	if err != nil {
		log.Fatalf("WS read error: %v", err)
	}
	fmt.Printf("WS %s %s\n", env.Type, env.Payload)

	if err := c.Send(ctx, arenadto.TypeListOffers, nil); err != nil {
		log.Fatalf("WS send error: %v", err)
	}
	env, err = c.Await(ctx, arenadto.TypeOpenOffers)
	if err != nil {
		log.Fatalf("WS read error: %v", err)
	}
	fmt.Printf("WS %s %s\n", env.Type, env.Payload)
}

func get(url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if err := fasthttp.DoTimeout(req, resp, 5*time.Second); err != nil {
		return nil, err
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return nil, fmt.Errorf("status %d", code)
	}
	return append([]byte(nil), resp.Body()...), nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
