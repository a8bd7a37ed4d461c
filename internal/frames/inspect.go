package frames

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Info describes one decoded frame header.
type Info struct {
	Name   string
	Format string
	Width  int
	Height int
}

// Inspect decodes the image header of each named frame in dir.
//
// Postcondition: Returns one Info per name in the same order, or an error
// naming the first frame that cannot be opened or decoded.
func Inspect(dir string, names []string) ([]Info, error) {
	infos := make([]Info, 0, len(names))
	for _, n := range names {
		info, err := inspectOne(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		info.Name = n
		infos = append(infos, info)
	}
	return infos, nil
}

func inspectOne(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("opening frame %s: %w", path, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return Info{}, fmt.Errorf("decoding frame %s: %w", path, err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// SizeMismatches returns the names of frames whose dimensions differ from
// the first frame's.
func SizeMismatches(infos []Info) []string {
	if len(infos) < 2 {
		return nil
	}
	w, h := infos[0].Width, infos[0].Height
	var out []string
	for _, info := range infos[1:] {
		if info.Width != w || info.Height != h {
			out = append(out, info.Name)
		}
	}
	return out
}

// ImportUID returns the uid:// recorded in the Godot import sidecar
// (<framePath>.import), or "" when there is no sidecar or no uid line.
//
// Postcondition: Returns an error only when the sidecar exists but cannot be read.
func ImportUID(framePath string) (string, error) {
	data, err := os.ReadFile(framePath + ".import")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading import sidecar for %s: %w", framePath, err)
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok || strings.TrimSpace(key) != "uid" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if strings.HasPrefix(value, "uid://") && value != "uid://<invalid>" {
			return value, nil
		}
	}
	return "", nil
}
