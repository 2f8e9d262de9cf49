package render

import (
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Terminal color codes
const (
	Reset = "\033[0m"
	Red   = "\033[31m"
	Blue  = "\033[34m"
	Cyan  = "\033[36m"
)

// Terminal draws a position as text. White pieces are upper case, black lower
// case, empty squares dots.
type Terminal struct {
	Color bool
}

func (t Terminal) Render(fen string, o Orientation) (string, error) {
	board, err := loadBoard(fen)
	if err != nil {
		return "", err
	}
	ranks, files := layout(o)

	var sb strings.Builder
	t.fileLine(&sb, files)
	for _, rank := range ranks {
		label := rune('1' + int(rank))
		t.paint(&sb, Cyan, label)
		for _, file := range files {
			sb.WriteByte(' ')
			p := board.Piece(nchess.NewSquare(file, rank))
			switch {
			case p == nchess.NoPiece:
				sb.WriteByte('.')
			case p.Color() == nchess.White:
				t.paint(&sb, Blue, pieceLetter(p))
			default:
				t.paint(&sb, Red, pieceLetter(p))
			}
		}
		sb.WriteByte(' ')
		t.paint(&sb, Cyan, label)
		sb.WriteByte('\n')
	}
	t.fileLine(&sb, files)
	return sb.String(), nil
}

func (t Terminal) fileLine(sb *strings.Builder, files []nchess.File) {
	sb.WriteString(" ")
	for _, f := range files {
		sb.WriteByte(' ')
		t.paint(sb, Cyan, rune('a'+int(f)))
	}
	sb.WriteByte('\n')
}

func (t Terminal) paint(sb *strings.Builder, code string, r rune) {
	if !t.Color {
		sb.WriteRune(r)
		return
	}
	sb.WriteString(code)
	sb.WriteRune(r)
	sb.WriteString(Reset)
}
