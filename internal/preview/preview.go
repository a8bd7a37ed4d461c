// Package preview renders contact sheets of a creature's frames so art can
// be checked without opening Godot.
package preview

import (
	"bufio"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	"github.com/cory-johannsen/spritegen/internal/frames"
)

// Gutter is the transparent spacing, in pixels, around every cell.
const Gutter = 1

// Sheet lays out set as two rows, stand frames then move frames, each
// frame scaled with nearest-neighbour sampling to cellHeight pixels high
// with its aspect ratio kept.
//
// Precondition: cellHeight > 0; every frame in set decodes as an image.
// Postcondition: Returns an RGBA image with a transparent background, or
// an error naming the first frame that cannot be read.
func Sheet(set frames.Set, dir string, cellHeight int) (image.Image, error) {
	if cellHeight <= 0 {
		return nil, fmt.Errorf("cell height must be > 0, got %d", cellHeight)
	}
	rows := make([][]image.Image, 2)
	for r, names := range [][]string{set.Stand, set.Move} {
		for _, n := range names {
			img, err := load(filepath.Join(dir, n))
			if err != nil {
				return nil, err
			}
			rows[r] = append(rows[r], resize.Resize(0, uint(cellHeight), img, resize.NearestNeighbor))
		}
	}

	width := Gutter
	for _, row := range rows {
		w := Gutter
		for _, img := range row {
			w += img.Bounds().Dx() + Gutter
		}
		width = max(width, w)
	}
	height := Gutter + len(rows)*(cellHeight+Gutter)

	sheet := image.NewRGBA(image.Rect(0, 0, width, height))
	for r, row := range rows {
		x := Gutter
		y := Gutter + r*(cellHeight+Gutter)
		for _, img := range row {
			b := img.Bounds()
			draw.Draw(sheet, image.Rect(x, y, x+b.Dx(), y+b.Dy()), img, b.Min, draw.Src)
			x += b.Dx() + Gutter
		}
	}
	return sheet, nil
}

func load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frame %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decoding frame %s: %w", path, err)
	}
	return img, nil
}

// Write encodes img as PNG at path.
func Write(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating preview %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding preview %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing preview %s: %w", path, err)
	}
	return nil
}
