// Package board renders positions as PNG images for spectators and archives.
package board

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-arena/internal/rules"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	squareSize   = 64
	margin       = 24
	headerHeight = 28

	MinSize = 128
	MaxSize = 1024
)

var ErrNilBoard = errors.New("board is nil")

type Highlight struct {
	From nchess.Square
	To   nchess.Square
}

// Options controls a render. Size is the output width in pixels; zero keeps the
// native width. Flip draws the board from black's side.
type Options struct {
	Size      int
	Flip      bool
	Highlight *Highlight
	Header    string
}

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	backgroundColor = color.RGBA{28, 31, 46, 255}
	lastMoveFill    = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	coordinateColor = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
)

// RenderPosition draws p with its last move highlighted.
func RenderPosition(ctx context.Context, p rules.Position, opts Options) ([]byte, error) {
	if opts.Highlight == nil {
		if from, to, ok := rules.LastMove(p); ok {
			opts.Highlight = &Highlight{From: from, To: to}
		}
	}
	return Render(ctx, rules.Board(p), opts)
}

func Render(ctx context.Context, b *nchess.Board, opts Options) ([]byte, error) {
	if b == nil {
		return nil, ErrNilBoard
	}
	if opts.Size != 0 && (opts.Size < MinSize || opts.Size > MaxSize) {
		return nil, fmt.Errorf("size %d outside [%d, %d]", opts.Size, MinSize, MaxSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	top := margin
	header := strings.TrimSpace(opts.Header)
	if header != "" {
		top += headerHeight
	}
	boardPx := squareSize * 8
	img := image.NewRGBA(image.Rect(0, 0, boardPx+margin*2, boardPx+top+margin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)
	origin := image.Point{X: margin, Y: top}

	drawSquares(img, origin, opts.Flip)
	if h := opts.Highlight; h != nil {
		overlay(img, squareRect(h.From, origin, opts.Flip), lastMoveFill)
		overlay(img, squareRect(h.To, origin, opts.Flip), lastMoveFill)
	}
	if err := drawPieces(img, b, origin, opts.Flip); err != nil {
		return nil, err
	}
	drawCoordinates(img, origin, opts.Flip)
	if header != "" {
		drawText(img, header, img.Bounds().Dx()/2, margin/2+headerHeight/2, coordinateColor)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out image.Image = img
	if opts.Size != 0 && opts.Size != img.Bounds().Dx() {
		h := img.Bounds().Dy() * opts.Size / img.Bounds().Dx()
		scaled := image.NewRGBA(image.Rect(0, 0, opts.Size, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSquares(dst *image.RGBA, origin image.Point, flip bool) {
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			sq := nchess.NewSquare(nchess.File(f), nchess.Rank(r))
			imagedraw.Draw(dst, squareRect(sq, origin, flip), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst *image.RGBA, b *nchess.Board, origin image.Point, flip bool) error {
	for sq, piece := range b.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		glyph, err := pieceImage(piece, squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, squareRect(sq, origin, flip), glyph, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawCoordinates(dst *image.RGBA, origin image.Point, flip bool) {
	for i := 0; i < 8; i++ {
		file := nchess.File(i)
		rank := nchess.Rank(i)
		fileRect := squareRect(nchess.NewSquare(file, nchess.Rank1), origin, flip)
		rankRect := squareRect(nchess.NewSquare(nchess.FileA, rank), origin, flip)
		drawText(dst, file.String(), fileRect.Min.X+squareSize/2, origin.Y+squareSize*8+margin/2, coordinateColor)
		drawText(dst, rank.String(), origin.X-margin/2, rankRect.Min.Y+squareSize/2, coordinateColor)
	}
}

// drawText centers text on (cx, cy).
func drawText(dst *image.RGBA, text string, cx, cy int, clr color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(clr), Face: face}
	w := d.MeasureString(text).Round()
	m := face.Metrics()
	baseline := cy + (m.Ascent.Ceil()-m.Descent.Ceil())/2
	d.Dot = fixed.P(cx-w/2, baseline)
	d.DrawString(text)
}

func overlay(dst *image.RGBA, r image.Rectangle, clr color.Color) {
	imagedraw.Draw(dst, r, image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func squareRect(sq nchess.Square, origin image.Point, flip bool) image.Rectangle {
	col := int(sq.File())
	row := 7 - int(sq.Rank())
	if flip {
		col, row = 7-col, 7-row
	}
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}
