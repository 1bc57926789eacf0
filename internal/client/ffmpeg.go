package client

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/quietcut/api/internal/config"
)

// MediaTool is the narrow gateway to the external analysis/encode binary:
// run it with an argument list, get back the captured diagnostic output
// and the exit status. Keeping the interface this small lets the pipeline
// be tested with canned trace text.
type MediaTool interface {
	Run(ctx context.Context, args ...string) (string, error)
	IsConfigured() bool
}

// FFmpegClient implements MediaTool by spawning ffmpeg. The diagnostic
// trace (input header dump, silencedetect markers, progress stamps) lives
// on stderr, so stdout and stderr are captured together.
type FFmpegClient struct {
	binPath string
}

// NewFFmpegClient creates a media tool client for the configured binary
func NewFFmpegClient(cfg *config.FFmpegConfig) *FFmpegClient {
	return &FFmpegClient{binPath: cfg.Path}
}

// Run executes the binary and returns its combined output. The output is
// returned even when the process exits non-zero: ffmpeg's null-output
// analysis mode can fail late while still producing a complete trace.
func (c *FFmpegClient) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, c.binPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s: %w", c.binPath, err)
	}
	return string(out), nil
}

// IsConfigured returns true if a binary path is set
func (c *FFmpegClient) IsConfigured() bool {
	return c.binPath != ""
}
