package layout

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

// FigureStore persists cropped figure images and returns an opaque reference.
type FigureStore interface {
	Save(ctx context.Context, name string, png []byte) (ref string, err error)
}

// LocalFigureStore writes figures under Dir; references are paths relative to Dir.
type LocalFigureStore struct {
	Dir string
}

func (s LocalFigureStore) Save(_ context.Context, name string, png []byte) (string, error) {
	full := filepath.Join(s.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, png, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// S3FigureStore uploads figures to a bucket; references are s3:// URLs.
type S3FigureStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3FigureStore builds an S3 client. Static keys from cfg win; otherwise the SDK's
// default chain is used (environment, shared config, then the instance or task role).
func NewS3FigureStore(ctx context.Context, cfg common.FiguresConfig) (*S3FigureStore, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, common.Fatal("CONFIG_ERROR", "figures bucket and region are required for s3", nil)
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, common.Fatal("CONFIG_ERROR", "loading aws config for figures", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint == "" {
			return
		}
		endpoint := cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		o.BaseEndpoint = aws.String(strings.TrimSuffix(endpoint, "/"))
		o.UsePathStyle = true
	})
	return &S3FigureStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *S3FigureStore) Save(ctx context.Context, name string, png []byte) (string, error) {
	key := path.Join(s.prefix, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(png),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// MemoryFigureStore keeps figures in memory; used by tools and tests.
type MemoryFigureStore struct {
	mu    sync.Mutex
	Files map[string][]byte
}

func NewMemoryFigureStore() *MemoryFigureStore {
	return &MemoryFigureStore{Files: make(map[string][]byte)}
}

func (m *MemoryFigureStore) Save(_ context.Context, name string, png []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[name] = append([]byte(nil), png...)
	return name, nil
}

// Get returns a stored figure.
func (m *MemoryFigureStore) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Files[name]
	return b, ok
}

// NewFigureStore selects the backend named by cfg.Driver.
func NewFigureStore(ctx context.Context, cfg common.FiguresConfig) (FigureStore, error) {
	switch cfg.Driver {
	case "", "local":
		return LocalFigureStore{Dir: cfg.Dir}, nil
	case "s3":
		return NewS3FigureStore(ctx, cfg)
	default:
		return nil, common.Fatal("CONFIG_ERROR", fmt.Sprintf("unknown figures driver %q", cfg.Driver), nil)
	}
}
