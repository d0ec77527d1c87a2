package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"videofetch/models"
)

// Extractor resolves a source URL into its variant catalog.
type Extractor interface {
	Extract(ctx context.Context, videoURL string) (*models.Catalog, error)
}

// Error carries the message yt-dlp printed when it could not resolve a URL.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Runner extracts catalogs by executing the yt-dlp binary.
type Runner struct {
	Binary  string
	Retries int
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewRunner(binary string, retries int, timeout time.Duration, logger *zap.Logger) *Runner {
	if binary == "" {
		binary = "yt-dlp"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Binary:  binary,
		Retries: retries,
		Timeout: timeout,
		Logger:  logger.With(zap.String("component", "ytdlp")),
	}
}

func (r *Runner) args(videoURL string) []string {
	return []string{
		"-J",
		"--no-playlist",
		"--skip-download",
		"--no-warnings",
		"--retries", strconv.Itoa(r.Retries),
		"--",
		videoURL,
	}
}

func (r *Runner) Extract(ctx context.Context, videoURL string) (*models.Catalog, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Binary, r.args(videoURL)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.Logger.Debug("yt-dlp finished",
		zap.String("url", videoURL),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Message: fmt.Sprintf("yt-dlp did not finish: %v", ctx.Err()), Err: ctx.Err()}
		}
		return nil, &Error{Message: errorLine(stderr.String(), err), Err: err}
	}

	catalog, err := ParseCatalog(stdout.Bytes())
	if err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}
	return catalog, nil
}

// errorLine picks the last "ERROR:" line yt-dlp printed, falling back to the last stderr line.
func errorLine(stderr string, runErr error) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(line, "ERROR:") {
			return line
		}
	}
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}
	return fmt.Sprintf("yt-dlp exec error: %v", runErr)
}
