package render

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Runner executes the rasterizer. Tests replace it to write PNGs directly.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	log := r.logger.With("bin", name, "elapsed", time.Since(start))
	if err != nil {
		log.Error("render.exec.failed", "args", args, "error", err, "stderr", truncate(stderr.String(), 4<<10))
	} else {
		log.Debug("render.exec.ok", "stderr_bytes", stderr.Len())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// truncate keeps the tail of s, where pdftoppm writes its fatal message.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
