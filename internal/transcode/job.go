// Package transcode runs ffmpeg to re-encode a media file into fragmented
// mp4, either streamed over a pipe or buffered into a temporary file that
// grows while playback is already underway.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const readyPollInterval = time.Second

// Job wraps an exec.Cmd for a single ffmpeg encode run.
type Job struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc

	id      string
	pipe    bool
	outPath string        // file mode: temporary output path
	stdout  io.ReadCloser // pipe mode: encoder output, valid after Start

	readyBytes   int64
	pollInterval time.Duration

	done      chan struct{}
	err       error
	stderrBuf bytes.Buffer

	cleanupOnce sync.Once
}

// NewPipeJob creates a job that writes the encoded stream to stdout, to be
// drained by a single reader. The job is not started.
func NewPipeJob(ctx context.Context, cfg EncodeConfig) *Job {
	cfg.Output = stdoutSink
	return newJob(ctx, cfg, true, "")
}

// NewFileJob creates a job that encodes into a temporary file, which callers
// typically serve while it is still growing. The job is not started.
func NewFileJob(ctx context.Context, cfg EncodeConfig) (*Job, error) {
	tmp, err := os.CreateTemp("", "chromecastplay-*.mp4")
	if err != nil {
		return nil, fmt.Errorf("create transcode output: %w", err)
	}
	outPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(outPath)
		return nil, fmt.Errorf("create transcode output: %w", err)
	}
	cfg.Output = outPath
	return newJob(ctx, cfg, false, outPath), nil
}

func newJob(ctx context.Context, cfg EncodeConfig, pipe bool, outPath string) *Job {
	binary := cfg.FFmpegPath
	if binary == "" {
		binary = "ffmpeg"
	}
	readyBytes := cfg.ReadyBytes
	if readyBytes <= 0 {
		readyBytes = DefaultReadyBytes
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, binary, buildEncodeArgs(cfg)...)
	return &Job{
		cmd:          cmd,
		cancel:       cancel,
		id:           uuid.NewString(),
		pipe:         pipe,
		outPath:      outPath,
		readyBytes:   readyBytes,
		pollInterval: readyPollInterval,
		done:         make(chan struct{}),
	}
}

// ID returns the job's unique identifier.
func (j *Job) ID() string {
	return j.id
}

// Start launches the ffmpeg process.
func (j *Job) Start() error {
	j.cmd.Stderr = &j.stderrBuf

	if j.pipe {
		// A plain os.Pipe keeps Wait from racing the reader: the child
		// writes the fd directly and the read side stays open until the
		// consumer closes it.
		pr, pw, err := os.Pipe()
		if err != nil {
			return fmt.Errorf("start transcode: %w", err)
		}
		j.cmd.Stdout = pw
		if err := j.cmd.Start(); err != nil {
			pr.Close()
			pw.Close()
			return fmt.Errorf("start transcode: %w", err)
		}
		pw.Close()
		j.stdout = pr
	} else {
		j.cmd.Stdout = io.Discard
		if err := j.cmd.Start(); err != nil {
			return fmt.Errorf("start transcode: %w", err)
		}
	}

	go func() {
		j.err = j.cmd.Wait()
		close(j.done)
	}()

	return nil
}

// Output returns the encoded stream for pipe jobs. It is valid after a
// successful Start and nil for file jobs.
func (j *Job) Output() io.ReadCloser {
	return j.stdout
}

// OutputPath returns the temporary output file for file jobs, empty for
// pipe jobs.
func (j *Job) OutputPath() string {
	return j.outPath
}

// WaitReady blocks until the output file holds enough data for playback to
// start, the encoder exits, or ctx is done. Pipe jobs are ready immediately.
// An encoder failure before the threshold is reported as an error; a clean
// early exit just means the whole output is shorter than the threshold.
func (j *Job) WaitReady(ctx context.Context) error {
	if j.outPath == "" {
		return nil
	}

	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		if fi, err := os.Stat(j.outPath); err == nil && fi.Size() >= j.readyBytes {
			return nil
		}

		select {
		case <-j.done:
			if j.err != nil {
				msg := j.Stderr()
				if msg == "" {
					return fmt.Errorf("ffmpeg transcode failed: %w", j.err)
				}
				return fmt.Errorf("ffmpeg transcode failed: %w: %s", j.err, msg)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop cancels the ffmpeg process context.
func (j *Job) Stop() {
	j.cancel()
}

// Wait blocks until the ffmpeg process exits.
func (j *Job) Wait() error {
	<-j.done
	return j.err
}

// Done returns a channel that is closed when the process exits.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// IsDone returns true if the process has exited.
func (j *Job) IsDone() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Err returns the exit error (nil if still running or exited cleanly).
func (j *Job) Err() error {
	return j.err
}

// Stderr returns the accumulated stderr output.
func (j *Job) Stderr() string {
	return strings.TrimSpace(j.stderrBuf.String())
}

// Cleanup removes the temporary output file, if any. Safe to call multiple
// times; callers should Stop and Wait first so ffmpeg is no longer writing.
func (j *Job) Cleanup() {
	j.cleanupOnce.Do(func() {
		if j.outPath != "" {
			os.Remove(j.outPath)
		}
	})
}
