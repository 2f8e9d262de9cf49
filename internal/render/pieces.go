package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// pieceShape returns the glyph body on a 45x45 view box.
func pieceShape(t nchess.PieceType) (string, bool) {
	switch t {
	case nchess.Pawn:
		return `<circle cx="22.5" cy="14" r="5"/>
<path d="M 18 22 L 27 22 L 30 35 L 15 35 Z"/>
<rect x="11" y="35" width="23" height="4"/>`, true
	case nchess.Rook:
		return `<path d="M 11 9 L 15 9 L 15 12 L 20 12 L 20 9 L 25 9 L 25 12 L 30 12 L 30 9 L 34 9 L 34 16 L 31 19 L 31 32 L 34 35 L 34 39 L 11 39 L 11 35 L 14 32 L 14 19 L 11 16 Z"/>`, true
	case nchess.Knight:
		return `<path d="M 14 39 L 34 39 L 32 30 C 34 20 30 10 22 8 L 20 5 L 17 9 C 12 12 9 18 10 22 L 13 24 L 18 20 L 20 22 L 14 30 Z"/>`, true
	case nchess.Bishop:
		return `<ellipse cx="22.5" cy="22" rx="7" ry="10"/>
<circle cx="22.5" cy="9" r="3"/>
<rect x="12" y="33" width="21" height="5"/>`, true
	case nchess.Queen:
		return `<path d="M 9 13 L 14 30 L 31 30 L 36 13 L 29 24 L 26 10 L 22.5 23 L 19 10 L 16 24 Z"/>
<circle cx="9" cy="12" r="2.5"/>
<circle cx="19" cy="9" r="2.5"/>
<circle cx="26" cy="9" r="2.5"/>
<circle cx="36" cy="12" r="2.5"/>
<rect x="12" y="31" width="21" height="7"/>`, true
	case nchess.King:
		return `<rect x="21" y="4" width="3" height="10"/>
<rect x="17.5" y="7" width="10" height="3"/>
<path d="M 11 30 C 5 22 12 14 22.5 20 C 33 14 40 22 34 30 Z"/>
<rect x="11" y="31" width="23" height="7"/>`, true
	}
	return "", false
}

type pieceCacheKey struct {
	piece nchess.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceSVG(piece nchess.Piece) (string, error) {
	shape, ok := pieceShape(piece.Type())
	if !ok {
		return "", fmt.Errorf("no glyph for piece %v", piece)
	}
	fill, stroke := "#f8f8f8", "#1a1a1a"
	if piece.Color() == nchess.Black {
		fill, stroke = "#1a1a1a", "#e0e0e0"
	}
	style := fmt.Sprintf(` fill="%s" stroke="%s" stroke-width="1.5"/>`, fill, stroke)
	return `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45">` +
		strings.ReplaceAll(shape, "/>", style) +
		`</svg>`, nil
}

func renderPieceImage(piece nchess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
