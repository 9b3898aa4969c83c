package rules

import (
    "fmt"
    "strings"
    "time"
)

// Header carries the PGN tag pairs written by ExportHistory.
type Header struct {
    White       string
    Black       string
    TimeControl string
    Termination string
    Result      string // "white", "black", "draw" or empty for an unfinished game
    Date        time.Time
}

// ResultToken maps a winner/draw token to the PGN result string.
func ResultToken(result string) string {
    switch strings.ToLower(strings.TrimSpace(result)) {
    case "white":
        return "1-0"
    case "black":
        return "0-1"
    case "draw":
        return "1/2-1/2"
    default:
        return "*"
    }
}

// ExportHistory renders p as PGN with numbered SAN moves.
func ExportHistory(p Position, h Header) string {
    var b strings.Builder
    date := h.Date
    if date.IsZero() {
        date = time.Now()
    }
    res := ResultToken(h.Result)
    b.WriteString("[Event \"Arena\"]\n")
    b.WriteString("[Site \"cheese-arena\"]\n")
    b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
    b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizeTag(h.White)))
    b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizeTag(h.Black)))
    if strings.TrimSpace(h.TimeControl) != "" {
        b.WriteString(fmt.Sprintf("[TimeControl \"%s\"]\n", sanitizeTag(h.TimeControl)))
    }
    if strings.TrimSpace(h.Termination) != "" {
        b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizeTag(strings.ToLower(h.Termination))))
    }
    b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", res))

    for i := 0; i < len(p.san); i += 2 {
        b.WriteString(fmt.Sprintf("%d. %s", i/2+1, p.san[i]))
        if i+1 < len(p.san) {
            b.WriteString(" ")
            b.WriteString(p.san[i+1])
        }
        b.WriteString(" ")
    }
    b.WriteString(res)
    return b.String()
}

func sanitizeTag(s string) string {
    s = strings.ReplaceAll(s, "\\", " ")
    s = strings.ReplaceAll(s, "\"", "'")
    return strings.TrimSpace(s)
}
