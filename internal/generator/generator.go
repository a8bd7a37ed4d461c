// Package generator turns a roster and a sprite tree into SpriteFrames
// resources: it plans which creatures have usable frames, builds and
// validates each resource, and writes the results.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/spritegen/internal/config"
	"github.com/cory-johannsen/spritegen/internal/frames"
	"github.com/cory-johannsen/spritegen/internal/godot"
	"github.com/cory-johannsen/spritegen/internal/roster"
)

// Options controls a Generator. Build one with OptionsFromConfig.
type Options struct {
	BaseDir         string
	ResPrefix       string
	OutputDir       string
	OutputResPrefix string
	EnumsFile       string
	PreviewDir      string

	Speed         float64
	FrameDuration float64
	Loop          bool
	IdleName      string
	// WalkNames are the walk clip names, one per direction, in output order.
	WalkNames []string

	Prefixes       frames.Prefixes
	IgnoreSuffixes []string

	Workers    int
	DryRun     bool
	EnumName   string
	CellHeight int
}

// OptionsFromConfig maps a validated configuration onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	walks := make([]string, len(cfg.Animation.Directions))
	for i, d := range cfg.Animation.Directions {
		walks[i] = cfg.Animation.WalkName(d)
	}
	return Options{
		BaseDir:         cfg.Paths.BaseDir,
		ResPrefix:       cfg.Paths.ResPrefix,
		OutputDir:       cfg.Paths.OutputDir,
		OutputResPrefix: cfg.Paths.OutputResPrefix,
		EnumsFile:       cfg.Paths.EnumsFile,
		PreviewDir:      cfg.Paths.PreviewDir,
		Speed:           cfg.Animation.Speed,
		FrameDuration:   cfg.Animation.FrameDuration,
		Loop:            cfg.Animation.Loop,
		IdleName:        cfg.Animation.IdleName,
		WalkNames:       walks,
		Prefixes: frames.Prefixes{
			Stand:    cfg.Frames.StandPrefix,
			Move:     cfg.Frames.MovePrefix,
			Fallback: cfg.Frames.FallbackPrefix,
		},
		IgnoreSuffixes: cfg.Frames.IgnoreSuffixes,
		Workers:        cfg.Generate.Workers,
		DryRun:         cfg.Generate.DryRun,
		EnumName:       cfg.Generate.EnumName,
		CellHeight:     cfg.Preview.CellHeight,
	}
}

// Job is one creature with a complete frame set.
type Job struct {
	Entry  roster.Entry
	Dir    string
	Frames frames.Set
}

// Skip records a creature left out of a run and why.
type Skip struct {
	Folder string
	Reason string
}

// Plan is the outcome of scanning every roster folder.
type Plan struct {
	Jobs  []Job
	Skips []Skip
}

// Output describes one generated resource.
type Output struct {
	Folder       string
	Path         string
	IdleFrames   int
	MoveFrames   int
	UsedFallback bool
}

// Report summarises a Run.
type Report struct {
	// Written lists generated resources in roster order. In a dry run the
	// paths are where the files would have gone.
	Written  []Output
	Skipped  []Skip
	Warnings []string
	// EnumsFile is the enum script path, or "" when none was written.
	EnumsFile string
	Elapsed   time.Duration
}

// Generator produces SpriteFrames resources for a roster.
type Generator struct {
	// roster is the full table; the enum script always covers all of it.
	roster *roster.Roster
	// selected is the part of roster that Plan scans.
	selected *roster.Roster
	opts     Options
	logger   *zap.Logger
}

// New constructs a Generator.
//
// Precondition: r must be a validated roster; logger must be non-nil.
// Postcondition: returns a non-nil Generator.
func New(r *roster.Roster, opts Options, logger *zap.Logger) *Generator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Generator{roster: r, selected: r, opts: opts, logger: logger}
}

// Select restricts planning to folders, kept in roster order. An empty list
// selects the whole roster. The enum script still lists every creature.
//
// Postcondition: Returns an error naming the first unknown folder and
// leaves the selection unchanged.
func (g *Generator) Select(folders []string) error {
	sub, err := g.roster.Filter(folders)
	if err != nil {
		return err
	}
	g.selected = sub
	return nil
}

// Plan scans each roster folder in order. A creature whose folder is
// missing or whose frames are incomplete becomes a Skip and a warning.
//
// Postcondition: Returns an error only when the base directory itself is
// unusable, a folder cannot be read for another reason, or ctx is done.
func (g *Generator) Plan(ctx context.Context) (*Plan, error) {
	info, err := os.Stat(g.opts.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("sprite base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sprite base directory %s is not a directory", g.opts.BaseDir)
	}

	plan := &Plan{}
	for _, e := range g.selected.Creatures {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(g.opts.BaseDir, e.Folder)
		set, err := frames.Scan(dir, g.opts.Prefixes, g.opts.IgnoreSuffixes)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				plan.Skips = append(plan.Skips, g.skip(e, "folder not found"))
				continue
			}
			return nil, fmt.Errorf("creature %q: %w", e.Folder, err)
		}
		if !set.Complete() {
			plan.Skips = append(plan.Skips, g.skip(e, set.Check().Error()))
			continue
		}
		if set.UsedFallback {
			g.logger.Debug("using fallback move frames",
				zap.String("creature", e.Folder),
				zap.String("prefix", g.opts.Prefixes.Fallback),
			)
		}
		plan.Jobs = append(plan.Jobs, Job{Entry: e, Dir: dir, Frames: set})
	}
	return plan, nil
}

func (g *Generator) skip(e roster.Entry, reason string) Skip {
	g.logger.Warn("skipping creature",
		zap.String("creature", e.Folder),
		zap.String("reason", reason),
	)
	return Skip{Folder: e.Folder, Reason: reason}
}

// ResourcePath is the res:// path of folder's generated resource.
func (g *Generator) ResourcePath(folder string) string {
	return resJoin(g.opts.OutputResPrefix, folder+".tres")
}

// OutputPath is the filesystem path of folder's generated resource.
func (g *Generator) OutputPath(folder string) string {
	return filepath.Join(g.opts.OutputDir, folder+".tres")
}

// Build assembles the resource for job: the idle clip from the stand
// frames and one walk clip per direction, all over the move frames.
//
// Postcondition: Returns a resource whose clips are the idle clip followed
// by the walk clips in configured order, or an error if a sidecar is unreadable.
func (g *Generator) Build(job Job) (*godot.SpriteFrames, error) {
	speed := g.opts.Speed
	if job.Entry.Speed > 0 {
		speed = job.Entry.Speed
	}
	b := godot.NewBuilder(g.ResourcePath(job.Entry.Folder))

	stand, err := g.textures(job, job.Frames.Stand)
	if err != nil {
		return nil, err
	}
	move, err := g.textures(job, job.Frames.Move)
	if err != nil {
		return nil, err
	}

	clip := func(name string, refs []godot.TextureRef) error {
		return b.AddAnimation(godot.AnimationSpec{
			Name:     name,
			Speed:    speed,
			Loop:     g.opts.Loop,
			Duration: g.opts.FrameDuration,
			Textures: refs,
		})
	}
	if err := clip(g.opts.IdleName, stand); err != nil {
		return nil, fmt.Errorf("creature %q: %w", job.Entry.Folder, err)
	}
	for _, name := range g.opts.WalkNames {
		if err := clip(name, move); err != nil {
			return nil, fmt.Errorf("creature %q: %w", job.Entry.Folder, err)
		}
	}
	return b.Build(), nil
}

// resJoin appends elems to a res:// prefix. path.Join would collapse the
// scheme's double slash.
func resJoin(prefix string, elems ...string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + strings.Join(elems, "/")
}

func (g *Generator) textures(job Job, names []string) ([]godot.TextureRef, error) {
	refs := make([]godot.TextureRef, len(names))
	for i, n := range names {
		uid, err := frames.ImportUID(filepath.Join(job.Dir, n))
		if err != nil {
			return nil, fmt.Errorf("creature %q: %w", job.Entry.Folder, err)
		}
		refs[i] = godot.TextureRef{
			Path: resJoin(g.opts.ResPrefix, job.Entry.Folder, n),
			UID:  uid,
		}
	}
	return refs, nil
}

// Render builds, renders and validates job's resource.
//
// Postcondition: the returned bytes have passed godot.Parse.
func (g *Generator) Render(job Job) ([]byte, error) {
	sf, err := g.Build(job)
	if err != nil {
		return nil, err
	}
	data := godot.Render(sf)
	if _, err := godot.Parse(data); err != nil {
		return nil, fmt.Errorf("creature %q failed validation: %w", job.Entry.Folder, err)
	}
	return data, nil
}

// Run plans, then renders, validates and writes one resource per job on up
// to Workers goroutines, then writes the enum script when one is configured.
// The script lists the whole roster, with SPRITE_FRAMES entries for every
// creature written now or already present in the output directory.
// Progress is drawn on progress when it is non-nil.
//
// Postcondition: on success every written resource has passed validation
// and Report.Written is in roster order. On error, files already written
// are left in place.
func (g *Generator) Run(ctx context.Context, progress io.Writer) (*Report, error) {
	overall := time.Now()

	t0 := time.Now()
	plan, err := g.Plan(ctx)
	if err != nil {
		return nil, err
	}
	g.logger.Info("planned",
		zap.Int("jobs", len(plan.Jobs)),
		zap.Int("skipped", len(plan.Skips)),
		zap.Duration("elapsed", time.Since(t0)),
	)

	if !g.opts.DryRun && len(plan.Jobs) > 0 {
		if err := os.MkdirAll(g.opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory %s: %w", g.opts.OutputDir, err)
		}
	}

	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(len(plan.Jobs),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("generating"),
		progressbar.OptionShowCount(),
	)

	outputs := make([]Output, len(plan.Jobs))
	var (
		mu       sync.Mutex
		warnings []string
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i, job := range plan.Jobs {
		i, job := i, job
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			out, warns, err := g.generate(job)
			if err != nil {
				return err
			}
			outputs[i] = out
			if len(warns) > 0 {
				mu.Lock()
				warnings = append(warnings, warns...)
				mu.Unlock()
			}
			_ = bar.Add(1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Finish()

	report := &Report{Written: outputs, Skipped: plan.Skips, Warnings: warnings}
	if g.opts.EnumsFile != "" && !g.opts.DryRun {
		have := g.existingOutputs()
		for _, o := range outputs {
			have[o.Folder] = true
		}
		if err := g.writeEnums(have); err != nil {
			return nil, err
		}
		report.EnumsFile = g.opts.EnumsFile
	}
	report.Elapsed = time.Since(overall)
	g.logger.Info("generation complete",
		zap.Int("written", len(report.Written)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Bool("dry_run", g.opts.DryRun),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (g *Generator) generate(job Job) (Output, []string, error) {
	t1 := time.Now()
	folder := job.Entry.Folder

	data, err := g.Render(job)
	if err != nil {
		return Output{}, nil, err
	}

	var warnings []string
	all := append(append([]string{}, job.Frames.Stand...), job.Frames.Move...)
	infos, err := frames.Inspect(job.Dir, all)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("%s: %v", folder, err))
	} else if odd := frames.SizeMismatches(infos); len(odd) > 0 {
		warnings = append(warnings, fmt.Sprintf("%s: frames differ in size from %s: %v", folder, infos[0].Name, odd))
	}
	for _, w := range warnings {
		g.logger.Warn("frame check", zap.String("creature", folder), zap.String("warning", w))
	}

	out := Output{
		Folder:       folder,
		Path:         g.OutputPath(folder),
		IdleFrames:   len(job.Frames.Stand),
		MoveFrames:   len(job.Frames.Move),
		UsedFallback: job.Frames.UsedFallback,
	}
	if g.opts.DryRun {
		g.logger.Info("validated",
			zap.String("creature", folder),
			zap.Int("bytes", len(data)),
			zap.Duration("elapsed", time.Since(t1)),
		)
		return out, warnings, nil
	}
	if err := writeFileAtomic(out.Path, data); err != nil {
		return Output{}, nil, fmt.Errorf("writing creature %q: %w", folder, err)
	}
	g.logger.Info("wrote",
		zap.String("creature", folder),
		zap.String("path", out.Path),
		zap.Int("idle_frames", out.IdleFrames),
		zap.Int("move_frames", out.MoveFrames),
		zap.Duration("elapsed", time.Since(t1)),
	)
	return out, warnings, nil
}

// EnumFile describes the enum script for the whole roster. Creatures in
// have get a SPRITE_FRAMES entry.
func (g *Generator) EnumFile(have map[string]bool) godot.EnumFile {
	f := godot.EnumFile{
		ClassName: g.opts.EnumName + "Enums",
		EnumName:  g.opts.EnumName,
	}
	for _, e := range g.roster.Creatures {
		entry := godot.EnumEntry{Enum: e.Enum, Name: e.Name}
		if have[e.Folder] {
			entry.SpriteFrames = g.ResourcePath(e.Folder)
		}
		f.Entries = append(f.Entries, entry)
	}
	return f
}

// WriteEnums writes the enum script, listing a SPRITE_FRAMES path for each
// creature whose resource already exists in the output directory.
//
// Precondition: Options.EnumsFile must be non-empty.
func (g *Generator) WriteEnums() error {
	if g.opts.EnumsFile == "" {
		return fmt.Errorf("no enums file configured")
	}
	return g.writeEnums(g.existingOutputs())
}

// existingOutputs reports which roster creatures already have a resource
// in the output directory.
func (g *Generator) existingOutputs() map[string]bool {
	have := make(map[string]bool)
	for _, e := range g.roster.Creatures {
		if _, err := os.Stat(g.OutputPath(e.Folder)); err == nil {
			have[e.Folder] = true
		}
	}
	return have
}

func (g *Generator) writeEnums(have map[string]bool) error {
	if err := os.MkdirAll(filepath.Dir(g.opts.EnumsFile), 0755); err != nil {
		return fmt.Errorf("creating enums directory: %w", err)
	}
	if err := writeFileAtomic(g.opts.EnumsFile, godot.RenderEnum(g.EnumFile(have))); err != nil {
		return fmt.Errorf("writing enums file: %w", err)
	}
	g.logger.Info("wrote enums", zap.String("path", g.opts.EnumsFile), zap.Int("with_frames", len(have)))
	return nil
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place, so readers never see a partial resource.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
