package render

import (
	nchess "github.com/corentings/chess/v2"
	"github.com/park285/arbiter-client/internal/rules"
)

// Orientation is the colour drawn at the bottom of the board.
type Orientation int

const (
	WhiteBottom Orientation = iota
	BlackBottom
)

// OrientationFor maps a side name ("WHITE", "BLACK", "SPECTATOR", ...) to an
// orientation. Only BLACK flips the board.
func OrientationFor(side string) Orientation {
	if side == "BLACK" {
		return BlackBottom
	}
	return WhiteBottom
}

var (
	ranksTopDown   = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	filesLeftRight = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

// layout returns ranks from top to bottom and files from left to right as
// seen from the given side.
func layout(o Orientation) ([]nchess.Rank, []nchess.File) {
	if o != BlackBottom {
		return ranksTopDown, filesLeftRight
	}
	ranks := make([]nchess.Rank, len(ranksTopDown))
	files := make([]nchess.File, len(filesLeftRight))
	for i := range ranksTopDown {
		ranks[i] = ranksTopDown[len(ranksTopDown)-1-i]
		files[i] = filesLeftRight[len(filesLeftRight)-1-i]
	}
	return ranks, files
}

// loadBoard parses a position for drawing.
func loadBoard(fen string) (*nchess.Board, error) {
	b, err := rules.Load(fen)
	if err != nil {
		return nil, err
	}
	return b.ChessBoard(), nil
}

func pieceLetter(p nchess.Piece) rune {
	var r rune
	switch p.Type() {
	case nchess.King:
		r = 'k'
	case nchess.Queen:
		r = 'q'
	case nchess.Rook:
		r = 'r'
	case nchess.Bishop:
		r = 'b'
	case nchess.Knight:
		r = 'n'
	case nchess.Pawn:
		r = 'p'
	default:
		return '.'
	}
	if p.Color() == nchess.White {
		r -= 'a' - 'A'
	}
	return r
}
