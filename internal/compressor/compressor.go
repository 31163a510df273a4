package compressor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"
)

// Extension of every compressed asset. All inputs are transcoded to JPEG.
const Extension = ".jpg"

var ErrEncode = errors.New("encode error")

type Options struct {
	TargetBytes    int64
	InitialQuality int
	FloorQuality   int
	Step           int
}

func DefaultOptions() Options {
	return Options{
		TargetBytes:    128 * 1024,
		InitialQuality: 85,
		FloorQuality:   10,
		Step:           10,
	}
}

// WithDefaults fills zero fields from DefaultOptions and clamps qualities
// into the range the JPEG encoder accepts.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.TargetBytes <= 0 {
		o.TargetBytes = d.TargetBytes
	}
	if o.InitialQuality <= 0 {
		o.InitialQuality = d.InitialQuality
	}
	if o.FloorQuality <= 0 {
		o.FloorQuality = d.FloorQuality
	}
	if o.Step <= 0 {
		o.Step = d.Step
	}
	o.InitialQuality = min(o.InitialQuality, 100)
	o.FloorQuality = min(o.FloorQuality, 100)
	if o.InitialQuality < o.FloorQuality {
		o.InitialQuality = o.FloorQuality
	}
	return o
}

// MaxPasses is the upper bound on encode passes for o.
func (o Options) MaxPasses() int {
	o = o.WithDefaults()
	span := o.InitialQuality - o.FloorQuality
	return (span+o.Step-1)/o.Step + 1
}

type Result struct {
	// Path is set whenever an output file may exist, including on
	// failure, so the caller can remove a partial write.
	Path    string
	Quality int
	Size    int64
	Passes  int
	// Colors is the JSON palette of the source, {"0":[r,g,b,a],...}.
	Colors []byte
}

// Compressor runs the quality search with at most `workers` encodes in
// flight across all callers.
type Compressor struct {
	sem   *semaphore.Weighted
	names NameGenerator
}

func New(workers int, names NameGenerator) *Compressor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if names == nil {
		names = NewTimeRandNames(nil, nil)
	}
	return &Compressor{
		sem:   semaphore.NewWeighted(int64(workers)),
		names: names,
	}
}

// Compress transcodes src into a new file in destDir, lowering quality by
// opt.Step until the output fits opt.TargetBytes or opt.FloorQuality is
// reached. Every pass encodes the decoded source, never the previous
// output. An output still above target at floor quality is accepted.
//
// Once started, a compression is not cancelled by ctx.
func (c *Compressor) Compress(ctx context.Context, src, destDir string, opt Options) (Result, error) {
	opt = opt.WithDefaults()

	if err := c.sem.Acquire(context.WithoutCancel(ctx), 1); err != nil {
		return Result{}, err
	}
	defer c.sem.Release(1)

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode %s: %w", ErrEncode, filepath.Base(src), err)
	}
	img = flatten(img)

	res := Result{
		Path:    filepath.Join(destDir, c.names.Next(Extension)),
		Quality: opt.InitialQuality,
	}
	for {
		res.Passes++
		size, err := encode(img, res.Path, res.Quality)
		if err != nil {
			return res, fmt.Errorf("%w: quality %d: %w", ErrEncode, res.Quality, err)
		}
		res.Size = size

		if size <= opt.TargetBytes || res.Quality <= opt.FloorQuality {
			break
		}
		res.Quality = max(res.Quality-opt.Step, opt.FloorQuality)
	}

	res.Colors, err = ExtractColors(img)
	if err != nil {
		return res, fmt.Errorf("extract colors: %w", err)
	}

	return res, nil
}

// encode writes img to path, truncating any previous content, and returns
// the resulting size.
func encode(img image.Image, path string, quality int) (int64, error) {
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// flatten composites img onto white so transparent regions do not turn
// black under JPEG.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
