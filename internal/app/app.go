// Package app wires configuration into a ready-to-run pipeline.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/classify"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/layout"
	"github.com/joseph-ayodele/papertrans/internal/llm"
	"github.com/joseph-ayodele/papertrans/internal/llm/anthropic"
	"github.com/joseph-ayodele/papertrans/internal/llm/openai"
	"github.com/joseph-ayodele/papertrans/internal/pipeline"
	"github.com/joseph-ayodele/papertrans/internal/render"
	"github.com/joseph-ayodele/papertrans/internal/retry"
	"github.com/joseph-ayodele/papertrans/internal/server"
	"github.com/joseph-ayodele/papertrans/internal/translate"
)

// App holds every long-lived component of a run.
type App struct {
	Config       *common.Config
	Cache        cache.Store
	Limiter      *llm.Limiter
	Renderer     *render.Renderer
	Extractor    *layout.Extractor
	Batcher      *translate.Batcher
	Classifier   *classify.Classifier
	Orchestrator *pipeline.Orchestrator
	Logger       *slog.Logger
}

type options struct {
	recognizer llm.LayoutRecognizer
	translator llm.Translator
	classifier llm.Classifier
	store      cache.Store
	figures    layout.FigureStore
	pipeline   []pipeline.Option
	renderer   []render.Option
}

type Option func(*options)

// WithRecognizer replaces the layout recognition client.
func WithRecognizer(r llm.LayoutRecognizer) Option { return func(o *options) { o.recognizer = r } }

// WithTranslator replaces the translation client.
func WithTranslator(t llm.Translator) Option { return func(o *options) { o.translator = t } }

// WithClassifier replaces the classification client.
func WithClassifier(c llm.Classifier) Option { return func(o *options) { o.classifier = c } }

// WithCache uses store instead of opening the configured backend.
func WithCache(store cache.Store) Option { return func(o *options) { o.store = store } }

// WithFigureStore replaces the configured figure backend.
func WithFigureStore(f layout.FigureStore) Option { return func(o *options) { o.figures = f } }

// WithPipelineOptions forwards options to the orchestrator.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) { o.pipeline = append(o.pipeline, opts...) }
}

// WithRendererOptions forwards options to the page renderer.
func WithRendererOptions(opts ...render.Option) Option {
	return func(o *options) { o.renderer = append(o.renderer, opts...) }
}

// New builds the full pipeline. Missing credentials surface as fatal configuration errors
// before any document is touched.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger, Limiter: llm.NewLimiter(cfg.Concurrency.ExternalCalls)}

	if err := a.initLayout(ctx, &o); err != nil {
		a.Close()
		return nil, err
	}

	translator, classifier := o.translator, o.classifier
	if translator == nil || classifier == nil {
		client, err := anthropic.NewClient(anthropic.FromAppConfig(cfg.Translate, cfg.Classify), logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		if translator == nil {
			translator = client
		}
		if classifier == nil {
			classifier = client
		}
	}

	a.Batcher = translate.NewBatcher(
		a.Limiter.Translator(translator),
		a.Cache,
		translate.Budget{Unit: cfg.Translate.BudgetUnit, Limit: cfg.Translate.BudgetLimit},
		retry.FromConfig(cfg.Retry, cfg.Translate.MaxAttempts),
		logger,
	)
	a.Classifier = classify.NewClassifier(a.Limiter.Classifier(classifier), a.Cache, classify.Config{
		MaxInputChars: cfg.Classify.MaxInputChars,
		Domains:       cfg.Classify.Domains,
		Retry:         retry.FromConfig(cfg.Retry, cfg.Classify.MaxAttempts),
	}, logger)

	popts := append([]pipeline.Option{pipeline.WithWorkers(cfg.Concurrency.Documents)}, o.pipeline...)
	a.Orchestrator = pipeline.NewOrchestrator(
		pipeline.NewExtractStage(a.Renderer, a.Extractor, logger),
		pipeline.NewTranslateStage(a.Batcher, logger),
		pipeline.NewClassifyStage(a.Classifier, logger),
		a.Cache, logger, popts...)
	return a, nil
}

// NewLayoutOnly builds the cache, renderer and extractor without the translation stack.
func NewLayoutOnly(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{Config: cfg, Logger: logger, Limiter: llm.NewLimiter(cfg.Concurrency.ExternalCalls)}
	if err := a.initLayout(ctx, &o); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) initLayout(ctx context.Context, o *options) error {
	cfg := a.Config
	a.Cache = o.store
	if a.Cache == nil {
		store, err := server.ConnectCache(ctx, cfg.Cache, a.Logger)
		if err != nil {
			return err
		}
		a.Cache = store
	}

	figures := o.figures
	if figures == nil {
		f, err := layout.NewFigureStore(ctx, cfg.Figures)
		if err != nil {
			return err
		}
		figures = f
	}

	recognizer := o.recognizer
	if recognizer == nil {
		client, err := openai.NewLayoutClient(openai.FromAppConfig(cfg.Layout), a.Logger)
		if err != nil {
			return err
		}
		recognizer = client
	}

	a.Renderer = render.NewRenderer(render.Config{
		Pdftoppm: cfg.Layout.Pdftoppm,
		DPI:      cfg.Layout.DPI,
		MaxPages: cfg.Layout.MaxPages,
	}, a.Logger, o.renderer...)
	a.Extractor = layout.NewExtractor(a.Limiter.Recognizer(recognizer), figures, a.Cache, layout.Config{
		MaxImageSide:    cfg.Layout.MaxImageSide,
		PageParallelism: cfg.Layout.PageParallelism,
		Retry:           retry.FromConfig(cfg.Retry, cfg.Layout.MaxAttempts),
	}, a.Logger)
	return nil
}

// Close releases the cache.
func (a *App) Close() {
	server.CloseCache(a.Cache, a.Logger)
}
