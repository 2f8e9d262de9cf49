package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/arbiter-client/internal/rules"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type Highlight struct {
	From string
	To   string
}

type PNGOptions struct {
	Header    string
	Status    string
	Highlight *Highlight
}

// PNG draws a position to an image.
type PNG struct {
	SquareSize int
}

const (
	defaultSquareSize = 64
	coordMargin       = 22
	hudHeight         = 44
)

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	highlightFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	backgroundColor = color.RGBA{28, 31, 46, 255}
	hudTextPrimary  = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTextMuted    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func (r PNG) Render(ctx context.Context, fen string, o Orientation, opts PNGOptions) ([]byte, error) {
	board, err := loadBoard(fen)
	if err != nil {
		return nil, err
	}
	sq := r.SquareSize
	if sq <= 0 {
		sq = defaultSquareSize
	}
	boardSize := sq * 8
	origin := image.Point{X: coordMargin, Y: hudHeight + coordMargin}
	img := image.NewRGBA(image.Rect(0, 0, boardSize+coordMargin*2, boardSize+hudHeight+coordMargin*2))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	ranks, files := layout(o)
	drawSquares(img, ranks, files, sq, origin)
	if opts.Highlight != nil {
		for _, name := range []string{opts.Highlight.From, opts.Highlight.To} {
			if s, err := rules.ParseSquare(name); err == nil {
				drawSquareOverlay(img, s, ranks, files, sq, origin, highlightFill)
			}
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := drawPieces(img, board, ranks, files, sq, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, ranks, files, sq, origin)
	drawHUD(img, opts)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func squareColor(s nchess.Square) color.Color {
	if (int(s.File())+int(s.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func squareRect(s nchess.Square, ranks []nchess.Rank, files []nchess.File, size int, origin image.Point) image.Rectangle {
	var row, col int
	for i, r := range ranks {
		if r == s.Rank() {
			row = i
		}
	}
	for i, f := range files {
		if f == s.File() {
			col = i
		}
	}
	x := origin.X + col*size
	y := origin.Y + row*size
	return image.Rect(x, y, x+size, y+size)
}

func drawSquares(dst draw.Image, ranks []nchess.Rank, files []nchess.File, size int, origin image.Point) {
	for _, rank := range ranks {
		for _, file := range files {
			s := nchess.NewSquare(file, rank)
			draw.Draw(dst, squareRect(s, ranks, files, size, origin), image.NewUniform(squareColor(s)), image.Point{}, draw.Src)
		}
	}
}

func drawSquareOverlay(dst draw.Image, s nchess.Square, ranks []nchess.Rank, files []nchess.File, size int, origin image.Point, c color.Color) {
	draw.Draw(dst, squareRect(s, ranks, files, size, origin), image.NewUniform(c), image.Point{}, draw.Over)
}

func drawPieces(dst draw.Image, board *nchess.Board, ranks []nchess.Rank, files []nchess.File, size int, origin image.Point) error {
	for _, rank := range ranks {
		for _, file := range files {
			s := nchess.NewSquare(file, rank)
			p := board.Piece(s)
			if p == nchess.NoPiece {
				continue
			}
			glyph, err := renderPieceImage(p, size)
			if err != nil {
				return err
			}
			draw.Draw(dst, squareRect(s, ranks, files, size, origin), glyph, image.Point{}, draw.Over)
		}
	}
	return nil
}

func drawCoordinates(dst draw.Image, ranks []nchess.Rank, files []nchess.File, size int, origin image.Point) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(coordinateColor), Face: face}
	ascent := face.Metrics().Ascent.Ceil()

	for i, f := range files {
		label := string(rune('a' + int(f)))
		w := d.MeasureString(label).Ceil()
		x := origin.X + i*size + (size-w)/2
		d.Dot = fixed.P(x, origin.Y+size*8+(coordMargin+ascent)/2)
		d.DrawString(label)
	}
	for i, r := range ranks {
		label := string(rune('1' + int(r)))
		w := d.MeasureString(label).Ceil()
		d.Dot = fixed.P((coordMargin-w)/2, origin.Y+i*size+(size+ascent)/2)
		d.DrawString(label)
	}
}

func drawHUD(dst draw.Image, opts PNGOptions) {
	face := basicfont.Face7x13
	lines := []struct {
		text string
		c    color.Color
	}{
		{strings.TrimSpace(opts.Header), hudTextPrimary},
		{strings.TrimSpace(opts.Status), hudTextMuted},
	}
	y := 6 + face.Metrics().Ascent.Ceil()
	for _, l := range lines {
		if l.text == "" {
			continue
		}
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(l.c), Face: face, Dot: fixed.P(coordMargin, y)}
		d.DrawString(l.text)
		y += face.Metrics().Height.Ceil() + 4
	}
}
