package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gookit/color"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spritegen/internal/preview"
)

// List prints every roster creature as "  - <Name> (<ENUM>): <folder path>".
// With colour set, names are highlighted and folders that do not exist on
// disk are shown in red.
func (g *Generator) List(w io.Writer, colour bool) error {
	for _, e := range g.roster.Creatures {
		dir := filepath.Join(g.opts.BaseDir, e.Folder)
		name, enum, where := e.Name, e.Enum, dir
		if colour {
			name = color.Bold.Render(name)
			enum = color.Cyan.Render(enum)
			if _, err := os.Stat(dir); err != nil {
				where = color.Red.Render(dir)
			}
		}
		if _, err := fmt.Fprintf(w, "  - %s (%s): %s\n", name, enum, where); err != nil {
			return err
		}
	}
	return nil
}

// Previews writes a contact sheet per planned creature to
// <PreviewDir>/<folder>.png and returns the paths written, in roster order.
// A creature whose frames cannot all be decoded gets no sheet and a
// warning; the others are still written.
func (g *Generator) Previews(ctx context.Context) ([]string, error) {
	plan, err := g.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if len(plan.Jobs) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(g.opts.PreviewDir, 0755); err != nil {
		return nil, fmt.Errorf("creating preview directory %s: %w", g.opts.PreviewDir, err)
	}
	var written []string
	for _, job := range plan.Jobs {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		img, err := preview.Sheet(job.Frames, job.Dir, g.opts.CellHeight)
		if err != nil {
			g.logger.Warn("skipping preview",
				zap.String("creature", job.Entry.Folder),
				zap.Error(err),
			)
			continue
		}
		out := filepath.Join(g.opts.PreviewDir, job.Entry.Folder+".png")
		if err := preview.Write(out, img); err != nil {
			return written, fmt.Errorf("creature %q: %w", job.Entry.Folder, err)
		}
		g.logger.Info("wrote preview", zap.String("creature", job.Entry.Folder), zap.String("path", out))
		written = append(written, out)
	}
	return written, nil
}
