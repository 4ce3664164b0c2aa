// Package layout turns rendered pages into ordered, typed blocks.
package layout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/llm"
	"github.com/joseph-ayodele/papertrans/internal/render"
	"github.com/joseph-ayodele/papertrans/internal/retry"
)

type Config struct {
	MaxImageSide    int
	PageParallelism int
	Retry           retry.Policy
}

type Extractor struct {
	recognizer llm.LayoutRecognizer
	figures    FigureStore
	cache      cache.Store
	cfg        Config
	logger     *slog.Logger
}

func NewExtractor(recognizer llm.LayoutRecognizer, figures FigureStore, store cache.Store, cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageParallelism <= 0 {
		cfg.PageParallelism = 1
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Extractor{recognizer: recognizer, figures: figures, cache: store, cfg: cfg, logger: logger}
}

// Result is the outcome of extracting a whole document.
type Result struct {
	Pages        []entity.Page
	FailedPages  []int
	Placeholders int
}

// Degraded reports whether any page or figure could not be extracted.
func (r Result) Degraded() bool { return len(r.FailedPages) > 0 || r.Placeholders > 0 }

// ExtractDocument extracts pages concurrently and returns them in page order.
// A page whose recognition keeps failing is kept with zero blocks and listed in FailedPages.
// Only a fatal configuration error or cancellation is returned as an error.
func (e *Extractor) ExtractDocument(ctx context.Context, docKey string, pages []render.Page) (Result, error) {
	out := make([]entity.Page, len(pages))
	placeholders := make([]int, len(pages))
	failed := make([]bool, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.PageParallelism)
	for i := range pages {
		g.Go(func() error {
			page, n, err := e.ExtractPage(gctx, docKey, pages[i])
			if err == nil {
				out[i], placeholders[i] = page, n
				return nil
			}
			switch common.Decide(err, false) {
			case common.OutcomeAbortRun, common.OutcomeFailDocument:
				return err
			}
			common.LoggerFrom(ctx, e.logger).Warn("layout.page.failed",
				"page", pages[i].Number, "error", err)
			out[i] = entity.Page{
				Number: pages[i].Number,
				Width:  pages[i].WidthPt,
				Height: pages[i].HeightPt,
				Blocks: []entity.Block{},
				Failed: true,
			}
			failed[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Pages: out}
	for i := range pages {
		if failed[i] {
			res.FailedPages = append(res.FailedPages, pages[i].Number)
		}
		res.Placeholders += placeholders[i]
	}
	return res, nil
}

// ExtractPage recognizes one page and converts its records into blocks in reading order.
// It also returns how many figures were replaced by placeholders.
func (e *Extractor) ExtractPage(ctx context.Context, docKey string, page render.Page) (entity.Page, int, error) {
	log := common.LoggerFrom(ctx, e.logger).With("page", page.Number)
	records, scale, err := e.recognize(ctx, page, log)
	if err != nil {
		return entity.Page{}, 0, err
	}

	bounds := page.Image.Bounds()
	ptPerPx := page.PointsPerPixel()
	result := entity.Page{Number: page.Number, Width: page.WidthPt, Height: page.HeightPt, Blocks: []entity.Block{}}
	figures, placeholders := 0, 0

	for i, rec := range records {
		kind, keep := constants.CanonicalizeCategory(rec.Category)
		if !keep {
			continue
		}
		native := entity.BBox{X1: rec.BBox[0], Y1: rec.BBox[1], X2: rec.BBox[2], Y2: rec.BBox[3]}.
			Scale(1/scale).
			Clamp(float64(bounds.Dx()), float64(bounds.Dy()))
		pos := native.Scale(ptPerPx)

		if kind != constants.KindFigure {
			if strings.TrimSpace(rec.Text) == "" {
				continue
			}
			b, err := entity.NewTextBlock(kind, page.Number, pos, rec.Text)
			if err != nil {
				log.Warn("layout.record.invalid", "index", i, "error", err)
				continue
			}
			result.Blocks = append(result.Blocks, b)
			continue
		}

		figures++
		name := fmt.Sprintf("%s/p%d_fig%d.png", safeName(docKey), page.Number, figures)
		ref, err := e.saveFigure(ctx, page, native, name)
		if err != nil {
			log.Warn("layout.figure.crop_failed", "figure", name, "error", err)
			placeholders++
			b, _ := entity.NewTextBlock(constants.KindText, page.Number, pos, constants.FigurePlaceholder)
			result.Blocks = append(result.Blocks, b)
			continue
		}
		b, err := entity.NewFigureBlock(page.Number, pos, ref)
		if err != nil {
			return entity.Page{}, 0, err
		}
		result.Blocks = append(result.Blocks, b)
	}

	log.Debug("layout.page.ok", "records", len(records), "blocks", len(result.Blocks), "figures", figures)
	return result, placeholders, nil
}

// recognize sends the downscaled page, consulting the layout cache first.
func (e *Extractor) recognize(ctx context.Context, page render.Page, log *slog.Logger) ([]llm.LayoutRecord, float64, error) {
	sent, scale := downscale(page.Image, e.cfg.MaxImageSide)
	payload := page.PNG
	if scale != 1 || len(payload) == 0 {
		var err error
		if payload, err = encodePNG(sent); err != nil {
			return nil, 0, common.Extraction("encode page", err)
		}
	}
	sum := sha256.Sum256(payload)
	key := cache.LayoutKey(hex.EncodeToString(sum[:]))

	var records []llm.LayoutRecord
	if hit, err := cache.GetJSON(ctx, e.cache, key, &records); err != nil {
		log.Warn("layout.cache.get_failed", "error", err)
	} else if hit {
		log.Debug("layout.cache.hit")
		return records, scale, nil
	}

	b := sent.Bounds()
	req := llm.LayoutRequest{Image: payload, MimeType: "image/png", Width: b.Dx(), Height: b.Dy()}
	err := retry.Do(ctx, e.cfg.Retry, log, "layout.recognize", func(ctx context.Context, attempt int) error {
		var rErr error
		records, rErr = e.recognizer.Recognize(ctx, req)
		if rErr != nil {
			return rErr
		}
		for _, rec := range records {
			if len(rec.BBox) != 4 {
				return common.Malformed("layout", "record %q has %d bbox coordinates", rec.Category, len(rec.BBox))
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	if _, err := cache.PutJSON(ctx, e.cache, key, records); err != nil {
		log.Warn("layout.cache.put_failed", "error", err)
	}
	return records, scale, nil
}

func (e *Extractor) saveFigure(ctx context.Context, page render.Page, box entity.BBox, name string) (string, error) {
	img, err := crop(page.Image, box)
	if err != nil {
		return "", common.Extraction("crop", err)
	}
	png, err := encodePNG(img)
	if err != nil {
		return "", common.Extraction("crop", err)
	}
	ref, err := e.figures.Save(ctx, name, png)
	if err != nil {
		return "", common.Extraction("persist figure", err)
	}
	return ref, nil
}

// safeName turns a document key into a single path segment.
func safeName(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "@", "_")
	return r.Replace(key)
}
