package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrBadPosition = errors.New("invalid position")
	ErrBadSquare   = errors.New("invalid square")
	ErrNoPiece     = errors.New("no piece on square")
	ErrIllegalMove = errors.New("illegal move")
)

// Color is the side a piece belongs to, or the side to move.
type Color string

const (
	White   Color = "white"
	Black   Color = "black"
	NoColor Color = ""
)

// Kind is a piece type in FEN letter form (lower case).
type Kind string

const (
	Pawn   Kind = "p"
	Knight Kind = "n"
	Bishop Kind = "b"
	Rook   Kind = "r"
	Queen  Kind = "q"
	King   Kind = "k"
)

type Piece struct {
	Color Color
	Kind  Kind
}

// Board is the local optimistic game. It is not safe for concurrent use; the
// session loop is its only caller.
type Board struct {
	game *nchess.Game
}

// New returns a board at the standard starting position.
func New() *Board {
	return &Board{game: nchess.NewGame()}
}

// Load parses a FEN into a fresh board.
func Load(fen string) (*Board, error) {
	g, err := gameFromFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Board{game: g}, nil
}

// Load replaces the position wholesale. On error the board keeps its previous
// position.
func (b *Board) Load(fen string) error {
	g, err := gameFromFEN(fen)
	if err != nil {
		return err
	}
	b.game = g
	return nil
}

// FEN returns the current position.
func (b *Board) FEN() string {
	return b.game.FEN()
}

// PieceAt returns the piece on square ("e2" or "E2").
func (b *Board) PieceAt(square string) (Piece, error) {
	sq, err := ParseSquare(square)
	if err != nil {
		return Piece{}, err
	}
	p := b.game.Position().Board().Piece(sq)
	if p == nchess.NoPiece {
		return Piece{}, ErrNoPiece
	}
	return pieceFrom(p), nil
}

// SideToMove reports whose move it is in the local position.
func (b *Board) SideToMove() Color {
	return colorFrom(b.game.Position().Turn())
}

// Apply plays from→to with an optional promotion letter and returns the new
// FEN. An illegal move leaves the board untouched.
func (b *Board) Apply(from, to, promotion string) (string, error) {
	src, err := ParseSquare(from)
	if err != nil {
		return "", err
	}
	dst, err := ParseSquare(to)
	if err != nil {
		return "", err
	}
	promo := strings.ToLower(strings.TrimSpace(promotion))
	if promo != "" && promoKind(promo) == nchess.NoPieceType {
		return "", fmt.Errorf("%w: promotion %q", ErrIllegalMove, promotion)
	}
	if !b.isValid(src, dst, promoKind(promo)) {
		return "", fmt.Errorf("%w: %s%s", ErrIllegalMove, src, dst)
	}

	// play on a copy so a rejection cannot leave a half-applied game behind
	next, err := gameFromFEN(b.game.FEN())
	if err != nil {
		return "", err
	}
	uci := src.String() + dst.String() + promo
	if err := next.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	b.game = next
	return b.game.FEN(), nil
}

// ChessBoard exposes the underlying board for renderers.
func (b *Board) ChessBoard() *nchess.Board {
	return b.game.Position().Board()
}

func (b *Board) isValid(src, dst nchess.Square, promo nchess.PieceType) bool {
	for _, mv := range b.game.ValidMoves() {
		if mv.S1() == src && mv.S2() == dst && mv.Promo() == promo {
			return true
		}
	}
	return false
}

// IsPromotion reports whether moving p to square lands a pawn on its last rank.
func IsPromotion(p Piece, to string) bool {
	if p.Kind != Pawn {
		return false
	}
	sq, err := ParseSquare(to)
	if err != nil {
		return false
	}
	switch p.Color {
	case White:
		return sq.Rank() == nchess.Rank8
	case Black:
		return sq.Rank() == nchess.Rank1
	}
	return false
}

// ParseSquare accepts algebraic squares in either case.
func ParseSquare(s string) (nchess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return nchess.NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return nchess.NewSquare(nchess.File(s[0]-'a'), nchess.Rank(s[1]-'1')), nil
}

func gameFromFEN(fen string) (*nchess.Game, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return nil, ErrBadPosition
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPosition, err)
	}
	return nchess.NewGame(opt), nil
}

func colorFrom(c nchess.Color) Color {
	switch c {
	case nchess.White:
		return White
	case nchess.Black:
		return Black
	}
	return NoColor
}

func pieceFrom(p nchess.Piece) Piece {
	var k Kind
	switch p.Type() {
	case nchess.Pawn:
		k = Pawn
	case nchess.Knight:
		k = Knight
	case nchess.Bishop:
		k = Bishop
	case nchess.Rook:
		k = Rook
	case nchess.Queen:
		k = Queen
	case nchess.King:
		k = King
	}
	return Piece{Color: colorFrom(p.Color()), Kind: k}
}

func promoKind(s string) nchess.PieceType {
	switch s {
	case "q":
		return nchess.Queen
	case "r":
		return nchess.Rook
	case "b":
		return nchess.Bishop
	case "n":
		return nchess.Knight
	}
	return nchess.NoPieceType
}
