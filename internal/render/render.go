// Package render rasterizes PDF pages and reports their native geometry.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

func init() {
	// pdfcpu would otherwise write a config directory under the user's home.
	api.DisableConfigDir()
}

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI, default 144 (2x PDF points)
	MaxPages int    // 0 = no limit
}

// Page is one rendered page. Image is at native render resolution; WidthPt and
// HeightPt are the PDF page size in points.
type Page struct {
	Number   int
	Image    image.Image
	PNG      []byte
	WidthPt  float64
	HeightPt float64
}

// PointsPerPixel converts raster coordinates to PDF points.
func (p Page) PointsPerPixel() float64 {
	w := p.Image.Bounds().Dx()
	if w == 0 || p.WidthPt == 0 {
		return 1
	}
	return p.WidthPt / float64(w)
}

type Renderer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Renderer)

// WithRunner replaces the exec-based runner.
func WithRunner(r Runner) Option {
	return func(rr *Renderer) {
		if r != nil {
			rr.runner = r
		}
	}
}

func NewRenderer(cfg Config, logger *slog.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 144
	}
	r := &Renderer{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render rasterizes every page of the PDF at path in ascending page order.
func (r *Renderer) Render(ctx context.Context, path string) ([]Page, error) {
	tmpDir, err := os.MkdirTemp("", "papertrans-pp-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			r.logger.Warn("render.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(r.cfg.DPI), "-png"}
	if r.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(r.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	// pdftoppm -r 144 -png <in.pdf> <tmp/page>
	if _, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, common.Extraction("render", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512)))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool { return pageIndex(matches[i]) < pageIndex(matches[j]) })
	if len(matches) == 0 {
		return nil, common.Extraction("render", fmt.Errorf("pdftoppm produced no images"))
	}

	dims := r.pageDims(path)
	pages := make([]Page, 0, len(matches))
	for i, file := range matches {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, common.Extraction("render", fmt.Errorf("decode %s: %w", filepath.Base(file), err))
		}
		p := Page{Number: i + 1, Image: img, PNG: raw}
		if i < len(dims) {
			p.WidthPt, p.HeightPt = dims[i][0], dims[i][1]
		} else {
			scale := 72 / float64(r.cfg.DPI)
			p.WidthPt = float64(img.Bounds().Dx()) * scale
			p.HeightPt = float64(img.Bounds().Dy()) * scale
		}
		pages = append(pages, p)
	}

	r.logger.Debug("render.ok", "path", path, "pages", len(pages), "dpi", r.cfg.DPI)
	return pages, nil
}

// pageDims reads page sizes from the PDF itself; on failure the raster size is used instead.
func (r *Renderer) pageDims(path string) [][2]float64 {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	dims, err := api.PageDims(f, nil)
	if err != nil {
		r.logger.Warn("render.page_dims_unavailable", "path", path, "error", err)
		return nil
	}
	out := make([][2]float64, len(dims))
	for i, d := range dims {
		out[i] = [2]float64{d.Width, d.Height}
	}
	return out
}

func pageIndex(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	n, _ := strconv.Atoi(base[strings.LastIndexByte(base, '-')+1:])
	return n
}
