package board

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-arena/internal/rules"
)

func decode(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil { t.Fatalf("decode: %v", err) }
	return img
}

func probe(sq nchess.Square, flip bool) image.Point {
	r := squareRect(sq, image.Point{X: margin, Y: margin}, flip)
	return image.Point{X: r.Min.X + 3, Y: r.Min.Y + 3}
}

func sameRGBA(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func TestRenderStartPosition(t *testing.T) {
	out, err := RenderPosition(context.Background(), rules.NewPosition(), Options{})
	if err != nil { t.Fatalf("render: %v", err) }
	img := decode(t, out)
	want := squareSize*8 + margin*2
	if img.Bounds().Dx() != want || img.Bounds().Dy() != want { t.Fatalf("bounds %v", img.Bounds()) }

	p := probe(nchess.E4, false)
	if !sameRGBA(img.At(p.X, p.Y), lightSquare) { t.Fatalf("e4 colour %v", img.At(p.X, p.Y)) }
	p = probe(nchess.D4, false)
	if !sameRGBA(img.At(p.X, p.Y), darkSquare) { t.Fatalf("d4 colour %v", img.At(p.X, p.Y)) }
}

func TestRenderHighlightsLastMove(t *testing.T) {
	pos, _, err := rules.TryApply(rules.NewPosition(), "e2e4")
	if err != nil { t.Fatalf("apply: %v", err) }
	out, err := RenderPosition(context.Background(), pos, Options{})
	if err != nil { t.Fatalf("render: %v", err) }
	img := decode(t, out)
	p := probe(nchess.E2, false)
	if sameRGBA(img.At(p.X, p.Y), lightSquare) { t.Fatalf("e2 not highlighted") }
	p = probe(nchess.E3, false)
	if !sameRGBA(img.At(p.X, p.Y), darkSquare) { t.Fatalf("e3 colour %v", img.At(p.X, p.Y)) }
}

func TestRenderScalesAndFlips(t *testing.T) {
	out, err := Render(context.Background(), rules.Board(rules.NewPosition()), Options{Size: 280, Flip: true, Header: "A vs B"})
	if err != nil { t.Fatalf("render: %v", err) }
	img := decode(t, out)
	if img.Bounds().Dx() != 280 { t.Fatalf("width %d", img.Bounds().Dx()) }
	if img.Bounds().Dy() <= 280 { t.Fatalf("header band missing: height %d", img.Bounds().Dy()) }

	if a, b := squareRect(nchess.A1, image.Point{}, true), squareRect(nchess.H8, image.Point{}, false); a != b {
		t.Fatalf("flipped a1 %v != h8 %v", a, b)
	}
}

func TestRenderRejects(t *testing.T) {
	if _, err := Render(context.Background(), nil, Options{}); err != ErrNilBoard { t.Fatalf("nil board: %v", err) }
	b := rules.Board(rules.NewPosition())
	if _, err := Render(context.Background(), b, Options{Size: 16}); err == nil { t.Fatalf("tiny size accepted") }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Render(ctx, b, Options{}); err == nil { t.Fatalf("cancelled context ignored") }
}
