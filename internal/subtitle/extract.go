package subtitle

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Extractor delegates subtitle conversion to ffmpeg. It covers the cases the
// in-process converter cannot: formats other than SRT/WebVTT, and subtitle
// tracks embedded in a media container.
type Extractor struct {
	binary string
}

func NewExtractor(binary string) *Extractor {
	bin := strings.TrimSpace(binary)
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Extractor{binary: bin}
}

const maxExtractTimeout = 60 * time.Second

// FromFile converts a standalone subtitle file to WebVTT, declaring the
// detected charset to ffmpeg when the content is not already UTF-8.
func (e *Extractor) FromFile(ctx context.Context, path string) (Blob, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitle file: %w", err)
	}
	out, runErr := e.run(ctx, detectEncodingName(raw), path)
	if runErr != nil {
		return nil, runErr
	}
	return out, nil
}

// FromMedia pulls the first embedded subtitle track out of a media
// container. A container with no subtitle stream yields an empty blob, not
// an error, matching how a missing track is handled downstream (nothing to
// mount).
func (e *Extractor) FromMedia(ctx context.Context, path string) (Blob, error) {
	out, err := e.run(ctx, "", path)
	if err != nil {
		if len(out) == 0 {
			// ffmpeg refuses to mux when the optional map matches no
			// stream; an error with empty output is the no-track case.
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (e *Extractor) run(ctx context.Context, charenc, input string) (Blob, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxExtractTimeout)
		defer cancel()
	}

	args := []string{"-y", "-nostdin"}
	if charenc != "" {
		args = append(args, "-sub_charenc", charenc)
	}
	args = append(args,
		"-i", input,
		"-map", "0:s:0?",
		"-f", "webvtt",
		"-loglevel", "error",
		"-",
	)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return Blob(stdout.Bytes()), fmt.Errorf("ffmpeg subtitle conversion failed: %w", err)
		}
		return Blob(stdout.Bytes()), fmt.Errorf("ffmpeg subtitle conversion failed: %w: %s", err, msg)
	}

	return Blob(stdout.Bytes()), nil
}
