package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/papertrans/constants"
)

// Config holds all application configuration
type Config struct {
	Layout      LayoutConfig      `yaml:"layout"`
	Translate   TranslateConfig   `yaml:"translate"`
	Classify    ClassifyConfig    `yaml:"classify"`
	Cache       CacheConfig       `yaml:"cache"`
	Figures     FiguresConfig     `yaml:"figures"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Retry       RetryConfig       `yaml:"retry"`
	Output      OutputConfig      `yaml:"output"`
	Server      ServerConfig      `yaml:"server"`
}

// LayoutConfig configures page rendering and the layout-recognition endpoint.
type LayoutConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model"`
	Prompt          string        `yaml:"prompt"`
	MaxTokens       int           `yaml:"max_tokens"`
	Pdftoppm        string        `yaml:"pdftoppm"`
	DPI             int           `yaml:"dpi"`
	MaxPages        int           `yaml:"max_pages"`
	MaxImageSide    int           `yaml:"max_image_side"`
	MaxAttempts     int           `yaml:"max_attempts"`
	PageParallelism int           `yaml:"page_parallelism"`
	Timeout         time.Duration `yaml:"timeout"`
}

// TranslateConfig configures the translation capability and batch budget.
type TranslateConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	TargetLanguage string        `yaml:"target_language"`
	MaxTokens      int           `yaml:"max_tokens"`
	BudgetUnit     string        `yaml:"budget_unit"`
	BudgetLimit    int           `yaml:"budget_limit"`
	MaxAttempts    int           `yaml:"max_attempts"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ClassifyConfig configures the tag classifier.
type ClassifyConfig struct {
	Model         string   `yaml:"model"`
	MaxInputChars int      `yaml:"max_input_chars"`
	MaxAttempts   int      `yaml:"max_attempts"`
	Domains       []string `yaml:"domains"`
}

// CacheConfig selects the content cache backend.
type CacheConfig struct {
	Driver      string        `yaml:"driver"` // memory|sqlite|postgres|redis
	DSN         string        `yaml:"dsn"`
	MaxConns    int32         `yaml:"max_conns"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// FiguresConfig selects where cropped figures are persisted.
type FiguresConfig struct {
	Driver          string `yaml:"driver"` // local|s3
	Dir             string `yaml:"dir"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// ConcurrencyConfig bounds work in flight across the whole run.
type ConcurrencyConfig struct {
	ExternalCalls int           `yaml:"external_calls"`
	Documents     int           `yaml:"documents"`
	RunTimeout    time.Duration `yaml:"run_timeout"`
}

// RetryConfig holds the shared backoff bounds.
type RetryConfig struct {
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// OutputConfig holds where per-document results are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	HTML   bool   `yaml:"html"`
	Report string `yaml:"report"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HealthAddr string `yaml:"health_addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Layout: LayoutConfig{
			Model:           "dotsocr-model",
			Prompt:          DefaultLayoutPrompt,
			MaxTokens:       24000,
			Pdftoppm:        "pdftoppm",
			DPI:             144,
			MaxImageSide:    1600,
			MaxAttempts:     3,
			PageParallelism: 4,
			Timeout:         2 * time.Minute,
		},
		Translate: TranslateConfig{
			Model:          "claude-haiku-4-5-20251001",
			TargetLanguage: "Traditional Chinese (Taiwan)",
			MaxTokens:      8192,
			BudgetUnit:     "chars",
			BudgetLimit:    6000,
			MaxAttempts:    3,
			Timeout:        90 * time.Second,
		},
		Classify: ClassifyConfig{
			Model:         "claude-haiku-4-5-20251001",
			MaxInputChars: 12000,
			MaxAttempts:   3,
			Domains:       constants.DefaultDomains,
		},
		Cache: CacheConfig{
			Driver:      "sqlite",
			DSN:         "file:papertrans-cache.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
			MaxConns:    8,
			DialTimeout: 3 * time.Second,
		},
		Figures: FiguresConfig{
			Driver: "local",
			Dir:    "./out/figures",
		},
		Concurrency: ConcurrencyConfig{
			ExternalCalls: 4,
			Documents:     2,
		},
		Retry: RetryConfig{
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
		},
		Output: OutputConfig{
			Dir: "./out",
		},
	}
}

// DefaultLayoutPrompt is the fixed instruction sent with every page image.
const DefaultLayoutPrompt = `Please output the layout information from the PDF image, including each layout element's bbox, its category, and the corresponding text content within the bbox.

1. Bbox format: [x1, y1, x2, y2]
2. Layout Categories: ['Caption', 'Footnote', 'Formula', 'List-item', 'Page-footer', 'Page-header', 'Picture', 'Section-header', 'Table', 'Text', 'Title'].
3. Text Extraction & Formatting Rules:
    - Picture: omit the text field.
    - Formula: format as LaTeX.
    - Table: format as HTML.
    - Others: format as Markdown.
4. Constraints:
    - The output text must be the original text from the image, with no translation.
    - All layout elements must be sorted according to human reading order.
5. Final Output: a single JSON array of objects with keys "bbox", "category" and "text".`

// LoadConfig builds configuration from defaults, an optional YAML file, then environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, Fatal("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, Fatal("CONFIG_ERROR", "parse config file", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Layout.Endpoint = getEnv("DOTSOCR_ENDPOINT", c.Layout.Endpoint)
	c.Layout.APIKey = getEnv("DOTSOCR_API_KEY", c.Layout.APIKey)
	c.Layout.Model = getEnv("DOTSOCR_MODEL", c.Layout.Model)
	c.Layout.Pdftoppm = getEnv("PAPERTRANS_PDFTOPPM", c.Layout.Pdftoppm)
	c.Layout.DPI = getEnvAsInt("PAPERTRANS_RENDER_DPI", c.Layout.DPI)
	c.Layout.MaxImageSide = getEnvAsInt("PAPERTRANS_MAX_IMAGE_SIDE", c.Layout.MaxImageSide)
	c.Layout.PageParallelism = getEnvAsInt("PAPERTRANS_PAGE_PARALLELISM", c.Layout.PageParallelism)

	c.Translate.APIKey = getEnv("ANTHROPIC_API_KEY", c.Translate.APIKey)
	c.Translate.BaseURL = getEnv("ANTHROPIC_BASE_URL", c.Translate.BaseURL)
	c.Translate.Model = getEnv("PAPERTRANS_TRANSLATE_MODEL", c.Translate.Model)
	c.Translate.TargetLanguage = getEnv("PAPERTRANS_TARGET_LANGUAGE", c.Translate.TargetLanguage)
	c.Translate.BudgetUnit = getEnv("PAPERTRANS_BUDGET_UNIT", c.Translate.BudgetUnit)
	c.Translate.BudgetLimit = getEnvAsInt("PAPERTRANS_BUDGET_LIMIT", c.Translate.BudgetLimit)
	c.Translate.MaxAttempts = getEnvAsInt("PAPERTRANS_TRANSLATE_ATTEMPTS", c.Translate.MaxAttempts)

	c.Classify.Model = getEnv("PAPERTRANS_CLASSIFY_MODEL", c.Classify.Model)
	if v := getEnv("PAPERTRANS_DOMAINS", ""); v != "" {
		c.Classify.Domains = splitList(v)
	}

	c.Cache.Driver = getEnv("PAPERTRANS_CACHE_DRIVER", c.Cache.Driver)
	c.Cache.DSN = getEnv("PAPERTRANS_CACHE_DSN", c.Cache.DSN)

	c.Figures.Driver = getEnv("PAPERTRANS_FIGURES_DRIVER", c.Figures.Driver)
	c.Figures.Dir = getEnv("PAPERTRANS_FIGURES_DIR", c.Figures.Dir)
	c.Figures.Bucket = getEnv("PAPERTRANS_S3_BUCKET", c.Figures.Bucket)
	c.Figures.Region = getEnv("AWS_REGION", c.Figures.Region)
	c.Figures.Endpoint = getEnv("PAPERTRANS_S3_ENDPOINT", c.Figures.Endpoint)
	c.Figures.AccessKeyID = getEnv("AWS_ACCESS_KEY_ID", c.Figures.AccessKeyID)
	c.Figures.SecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", c.Figures.SecretAccessKey)

	c.Concurrency.ExternalCalls = getEnvAsInt("PAPERTRANS_EXTERNAL_CALLS", c.Concurrency.ExternalCalls)
	c.Concurrency.Documents = getEnvAsInt("PAPERTRANS_DOCUMENTS", c.Concurrency.Documents)
	c.Concurrency.RunTimeout = getEnvAsDuration("PAPERTRANS_RUN_TIMEOUT", c.Concurrency.RunTimeout)

	c.Retry.InitialBackoff = getEnvAsDuration("PAPERTRANS_BACKOFF_INITIAL", c.Retry.InitialBackoff)
	c.Retry.MaxBackoff = getEnvAsDuration("PAPERTRANS_BACKOFF_MAX", c.Retry.MaxBackoff)

	c.Output.Dir = getEnv("PAPERTRANS_OUTPUT_DIR", c.Output.Dir)
	c.Output.HTML = getEnvAsBool("PAPERTRANS_OUTPUT_HTML", c.Output.HTML)
	c.Server.HealthAddr = getEnv("PAPERTRANS_HEALTH_ADDR", c.Server.HealthAddr)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects configurations no document could be processed with.
// Any error it returns wraps ErrFatalConfiguration.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("DOTSOCR_ENDPOINT", c.Layout.Endpoint, Required)
	v.Field("DOTSOCR_API_KEY", c.Layout.APIKey, Required)
	v.Field("ANTHROPIC_API_KEY", c.Translate.APIKey, Required)
	v.Field("layout.dpi", c.Layout.DPI, Positive)
	v.Field("layout.max_image_side", c.Layout.MaxImageSide, Positive)
	v.Field("layout.max_attempts", c.Layout.MaxAttempts, Positive)
	v.Field("layout.page_parallelism", c.Layout.PageParallelism, Positive)
	v.Field("translate.budget_unit", c.Translate.BudgetUnit, OneOf("items", "chars", "tokens"))
	v.Field("translate.budget_limit", c.Translate.BudgetLimit, Positive)
	v.Field("translate.max_attempts", c.Translate.MaxAttempts, Positive)
	v.Field("classify.max_attempts", c.Classify.MaxAttempts, Positive)
	v.Field("classify.domains", c.Classify.Domains, Required)
	v.Field("cache.driver", c.Cache.Driver, OneOf("memory", "sqlite", "postgres", "redis"))
	v.Field("figures.driver", c.Figures.Driver, OneOf("local", "s3"))
	v.Field("concurrency.external_calls", c.Concurrency.ExternalCalls, Positive)
	v.Field("concurrency.documents", c.Concurrency.Documents, Positive)

	if c.Cache.Driver != "memory" {
		v.Field("cache.dsn", c.Cache.DSN, Required)
	}
	switch c.Figures.Driver {
	case "s3":
		v.Field("figures.bucket", c.Figures.Bucket, Required)
		v.Field("figures.region", c.Figures.Region, Required)
	case "local":
		v.Field("figures.dir", c.Figures.Dir, Required)
	}
	if c.Retry.InitialBackoff <= 0 || c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		v.Failf("retry", fmt.Sprintf("%s..%s", c.Retry.InitialBackoff, c.Retry.MaxBackoff),
			"initial backoff must be positive and not exceed max backoff")
	}
	return v.Err()
}
