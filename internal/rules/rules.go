package rules

import (
    "errors"
    "fmt"
    "strings"

    nchess "github.com/corentings/chess/v2"
)

// ErrRejected is returned for illegal, ambiguous or malformed moves.
var ErrRejected = errors.New("move rejected")

// Color identifies a chess side.
type Color string

const (
    White Color = "white"
    Black Color = "black"
)

func (c Color) Opposite() Color {
    if c == White { return Black }
    return White
}

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(s string) (Color, bool) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "white", "w":
        return White, true
    case "black", "b":
        return Black, true
    }
    return "", false
}

// TerminalKind classifies a finished position.
type TerminalKind int

const (
    NotTerminal TerminalKind = iota
    Checkmate
    Draw
)

type Terminal struct {
    Kind   TerminalKind
    Winner Color  // set for Checkmate
    Method string // e.g. "checkmate", "stalemate", "insufficient_material"
}

// Position is an immutable snapshot. TryApply always returns a new Position and
// leaves the receiver untouched.
type Position struct {
    game *nchess.Game
    uci  []string
    san  []string
}

// Applied describes a move that was accepted by TryApply.
type Applied struct {
    UCI   string
    SAN   string
    Color Color
}

func NewPosition() Position {
    return Position{game: nchess.NewGame()}
}

func (p Position) valid() bool { return p.game != nil }

func SideToMove(p Position) Color {
    if !p.valid() { return White }
    return colorFrom(p.game.Position().Turn())
}

// TryApply validates move against p and returns the successor position.
// UCI is tried first, then SAN. Delegate panics are converted to ErrRejected.
func TryApply(p Position, move string) (next Position, applied Applied, err error) {
    defer func() {
        if r := recover(); r != nil {
            next, applied = Position{}, Applied{}
            err = fmt.Errorf("%w: engine panic: %v", ErrRejected, r)
        }
    }()
    if !p.valid() { return Position{}, Applied{}, fmt.Errorf("%w: no position", ErrRejected) }
    raw := strings.TrimSpace(move)
    if raw == "" { return Position{}, Applied{}, fmt.Errorf("%w: empty move", ErrRejected) }

    clone := p.game.Clone()
    pos := clone.Position()
    mover := colorFrom(pos.Turn())

    mv, derr := nchess.UCINotation{}.Decode(pos, strings.ToLower(raw))
    if derr != nil {
        mv, derr = nchess.AlgebraicNotation{}.Decode(pos, raw)
        if derr != nil {
            return Position{}, Applied{}, fmt.Errorf("%w: cannot parse %q", ErrRejected, raw)
        }
    }
    san := nchess.AlgebraicNotation{}.Encode(pos, mv)
    uci := strings.ToLower(nchess.UCINotation{}.Encode(pos, mv))
    if err := clone.Move(mv, nil); err != nil {
        return Position{}, Applied{}, fmt.Errorf("%w: %v", ErrRejected, err)
    }

    next = Position{
        game: clone,
        uci:  append(append([]string(nil), p.uci...), uci),
        san:  append(append([]string(nil), p.san...), san),
    }
    return next, Applied{UCI: uci, SAN: san, Color: mover}, nil
}

// TerminalStatus reports checkmate or an automatic draw (stalemate, insufficient
// material, fivefold repetition, seventy-five move rule).
func TerminalStatus(p Position) Terminal {
    if !p.valid() { return Terminal{} }
    switch p.game.Outcome() {
    case nchess.WhiteWon:
        return Terminal{Kind: Checkmate, Winner: White, Method: methodName(p.game.Method())}
    case nchess.BlackWon:
        return Terminal{Kind: Checkmate, Winner: Black, Method: methodName(p.game.Method())}
    case nchess.Draw:
        return Terminal{Kind: Draw, Method: methodName(p.game.Method())}
    }
    return Terminal{}
}

// ExportCanonical returns the FEN of p.
func ExportCanonical(p Position) string {
    if !p.valid() { return "" }
    return p.game.FEN()
}

func MovesUCI(p Position) []string { return append([]string(nil), p.uci...) }
func MovesSAN(p Position) []string { return append([]string(nil), p.san...) }
func MoveCount(p Position) int { return len(p.uci) }

// Board exposes the piece placement for rendering.
func Board(p Position) *nchess.Board {
    if !p.valid() { return nil }
    return p.game.Position().Board()
}

// LastMove returns the squares of the most recent move, if any.
func LastMove(p Position) (from, to nchess.Square, ok bool) {
    if !p.valid() { return 0, 0, false }
    moves := p.game.Moves()
    if len(moves) == 0 { return 0, 0, false }
    mv := moves[len(moves)-1]
    return mv.S1(), mv.S2(), true
}

func colorFrom(c nchess.Color) Color {
    if c == nchess.Black { return Black }
    return White
}

func methodName(m nchess.Method) string {
    switch m {
    case nchess.Checkmate:
        return "checkmate"
    case nchess.Stalemate:
        return "stalemate"
    case nchess.ThreefoldRepetition:
        return "threefold_repetition"
    case nchess.FivefoldRepetition:
        return "fivefold_repetition"
    case nchess.FiftyMoveRule:
        return "fifty_move_rule"
    case nchess.SeventyFiveMoveRule:
        return "seventy_five_move_rule"
    case nchess.InsufficientMaterial:
        return "insufficient_material"
    default:
        return ""
    }
}
