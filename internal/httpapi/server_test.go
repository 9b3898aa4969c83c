package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/cheese-arena/internal/archive"
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

type stubLobby struct {
	info      arenadto.ServerInfo
	positions map[string]rules.Position
}

func (s stubLobby) ServerInfo() arenadto.ServerInfo { return s.info }

func (s stubLobby) Position(id string) (rules.Position, bool) {
	p, ok := s.positions[id]
	return p, ok
}

func newTestServer(t *testing.T, results ResultStore) *httptest.Server {
	t.Helper()
	lobby := stubLobby{
		info:      arenadto.ServerInfo{PlayersOnline: 3, LiveSessions: 1, OpenOffers: 2},
		positions: map[string]rules.Position{"abc123": rules.NewPosition()},
	}
	srv := httptest.NewServer(New(lobby, nil, results).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil { t.Fatalf("GET %s: %v", url, err) }
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthAndServerInfo(t *testing.T) {
	srv := newTestServer(t, nil)
	health := get(t, srv.URL+"/test")
	if health.StatusCode != http.StatusOK { t.Fatalf("/test status %d", health.StatusCode) }
	body, err := io.ReadAll(health.Body)
	if err != nil { t.Fatalf("read: %v", err) }
	if string(body) != "200 OK" { t.Fatalf("/test body %q", body) }

	resp := get(t, srv.URL+"/serverInfo")
	var info arenadto.ServerInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil { t.Fatalf("decode: %v", err) }
	if info.PlayersOnline != 3 || info.LiveSessions != 1 || info.OpenOffers != 2 { t.Fatalf("info %+v", info) }

	if resp := get(t, srv.URL+"/metrics"); resp.StatusCode != http.StatusOK { t.Fatalf("/metrics status %d", resp.StatusCode) }
}

func TestBoardPNG(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := get(t, srv.URL+"/sessions/abc123/board.png?size=256&orientation=black")
	if resp.StatusCode != http.StatusOK { t.Fatalf("status %d", resp.StatusCode) }
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" { t.Fatalf("content type %q", ct) }
	img, err := png.Decode(resp.Body)
	if err != nil { t.Fatalf("png: %v", err) }
	if img.Bounds().Dx() != 256 { t.Fatalf("width %d", img.Bounds().Dx()) }

	if resp := get(t, srv.URL+"/sessions/nope/board.png"); resp.StatusCode != http.StatusNotFound { t.Fatalf("missing session status %d", resp.StatusCode) }
	if resp := get(t, srv.URL+"/sessions/abc123/board.png?size=9000"); resp.StatusCode != http.StatusBadRequest { t.Fatalf("bad size status %d", resp.StatusCode) }
}

func TestResultsFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil { t.Fatalf("miniredis: %v", err) }
	t.Cleanup(mr.Close)
	rdb, err := archive.DialRedis(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil { t.Fatalf("dial: %v", err) }
	t.Cleanup(func() { _ = rdb.Close() })
	store := archive.NewRedisSink(rdb)

	ended := time.Now().UTC().Truncate(time.Second)
	rec := archive.Record{SessionID: "g1", WhiteName: "ann", BlackName: "bo", Result: "white", Cause: "checkmate", EndedAt: ended, StartedAt: ended.Add(-time.Minute)}
	if err := store.Save(context.Background(), rec); err != nil { t.Fatalf("save: %v", err) }

	srv := newTestServer(t, store)
	resp := get(t, srv.URL+"/results/g1")
	if resp.StatusCode != http.StatusOK { t.Fatalf("status %d", resp.StatusCode) }
	var got archive.Record
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil { t.Fatalf("decode: %v", err) }
	if got.SessionID != "g1" || got.Result != "white" { t.Fatalf("record %+v", got) }

	if resp := get(t, srv.URL+"/results/none"); resp.StatusCode != http.StatusNotFound { t.Fatalf("missing status %d", resp.StatusCode) }

	resp = get(t, srv.URL+"/players/bo/results")
	var list []archive.Record
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil { t.Fatalf("decode: %v", err) }
	if len(list) != 1 || list[0].SessionID != "g1" { t.Fatalf("player results %+v", list) }
}

func TestResultsWithoutStore(t *testing.T) {
	srv := newTestServer(t, nil)
	if resp := get(t, srv.URL+"/results/g1"); resp.StatusCode != http.StatusServiceUnavailable { t.Fatalf("status %d", resp.StatusCode) }
}
