package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thotypous/chromecastplay/internal/media"
	"github.com/thotypous/chromecastplay/internal/metrics"
	"github.com/thotypous/chromecastplay/internal/subtitle"
	"github.com/thotypous/chromecastplay/internal/transcode"
)

// RunOptions are the per-invocation choices for one playback run.
type RunOptions struct {
	VideoPath    string
	SubtitlePath string
	ExtractSubs  bool // probe the video for an embedded subtitle track
	Growable     bool // file is still being written by another process
	Chunked      bool // serve forward-only without range support
	Transcode    bool
	Bitrate      string // overrides the configured bitrate; implies Transcode
}

type sourceMode int

const (
	modeStatic sourceMode = iota
	modeGrowable
	modeChunked
	modePipeEncode
	modeFileEncode
)

// resolveMode picks the media source variant for opts. Transcoding normally
// streams over a pipe; combined with growable it encodes into a temporary
// file served while still growing, which keeps the output seekable.
func resolveMode(opts RunOptions) (sourceMode, error) {
	if opts.Growable && opts.Chunked {
		return 0, errors.New("growable and chunked are mutually exclusive")
	}
	transcoding := opts.Transcode || opts.Bitrate != ""
	switch {
	case transcoding && opts.Growable:
		return modeFileEncode, nil
	case transcoding:
		return modePipeEncode, nil
	case opts.Chunked:
		return modeChunked, nil
	case opts.Growable:
		return modeGrowable, nil
	default:
		return modeStatic, nil
	}
}

// Session owns everything one playback run serves: the media source, the
// normalized subtitle blob, and the transcode job when one is running.
type Session struct {
	Source     media.Source
	Subtitles  subtitle.Blob
	MediaName  string
	Unseekable bool

	job       *transcode.Job
	logger    *slog.Logger
	stopped   atomic.Bool
	closeOnce sync.Once
}

// NewSession prepares the subtitle blob and media source for opts, starting
// ffmpeg when a transcoding mode is selected. File-mode transcoding blocks
// until enough output is buffered to serve.
func NewSession(ctx context.Context, cfg Config, opts RunOptions, logger *slog.Logger) (*Session, error) {
	mode, err := resolveMode(opts)
	if err != nil {
		return nil, err
	}

	blob, err := loadSubtitles(ctx, cfg, opts, logger)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Subtitles: blob,
		MediaName: filepath.Base(opts.VideoPath),
		logger:    logger,
	}

	bitrate := cfg.Bitrate
	if opts.Bitrate != "" {
		bitrate = opts.Bitrate
	}
	encodeCfg := transcode.EncodeConfig{
		FFmpegPath: cfg.FFmpegPath,
		Input:      opts.VideoPath,
		Bitrate:    bitrate,
		Preset:     cfg.Preset,
		ReadyBytes: cfg.ReadyBytes,
	}

	switch mode {
	case modeStatic:
		src, err := media.NewStaticFile(opts.VideoPath, media.ContentTypeForPath(opts.VideoPath), logger)
		if err != nil {
			return nil, err
		}
		s.Source = src

	case modeGrowable:
		src, err := media.NewGrowableFile(opts.VideoPath, media.ContentTypeForPath(opts.VideoPath), logger)
		if err != nil {
			return nil, err
		}
		s.Source = src

	case modeChunked:
		f, err := os.Open(opts.VideoPath)
		if err != nil {
			return nil, fmt.Errorf("open video file: %w", err)
		}
		s.Source = media.NewPipedStream(f, media.ContentTypeForPath(opts.VideoPath), logger)
		s.Unseekable = true

	case modePipeEncode:
		job := transcode.NewPipeJob(ctx, encodeCfg)
		if err := s.startJob(ctx, job, opts.VideoPath); err != nil {
			return nil, err
		}
		s.Source = media.NewPipedStream(job.Output(), media.DefaultContentType, logger)
		s.Unseekable = true

	case modeFileEncode:
		job, err := transcode.NewFileJob(ctx, encodeCfg)
		if err != nil {
			return nil, err
		}
		if err := s.startJob(ctx, job, opts.VideoPath); err != nil {
			job.Cleanup()
			return nil, err
		}

		readyStart := time.Now()
		if err := job.WaitReady(ctx); err != nil {
			s.Close()
			return nil, err
		}
		metrics.TranscodeReadyDuration.Observe(time.Since(readyStart).Seconds())

		src, err := media.NewGrowableFile(job.OutputPath(), media.DefaultContentType, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Source = src
	}

	return s, nil
}

// Close tears down the transcode job, if any. Safe to call multiple times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.job == nil {
			return
		}
		s.stopped.Store(true)
		s.job.Stop()
		_ = s.job.Wait()
		s.job.Cleanup()
	})
}

func (s *Session) startJob(ctx context.Context, job *transcode.Job, input string) error {
	if err := job.Start(); err != nil {
		return err
	}
	s.job = job
	metrics.TranscodeStartsTotal.Inc()
	metrics.TranscodeRunning.Set(1)
	s.logger.Info("transcode started",
		slog.String("job", job.ID()),
		slog.String("input", filepath.Base(input)),
	)
	go s.watchJob(ctx)
	return nil
}

func (s *Session) watchJob(ctx context.Context) {
	<-s.job.Done()
	metrics.TranscodeRunning.Set(0)

	err := s.job.Err()
	if err != nil && ctx.Err() == nil && !s.stopped.Load() {
		metrics.TranscodeFailuresTotal.Inc()
		s.logger.Warn("transcode exited with error",
			slog.String("job", s.job.ID()),
			slog.String("error", err.Error()),
			slog.String("stderr", truncateTail(s.job.Stderr(), 400)),
		)
		return
	}
	s.logger.Info("transcode finished", slog.String("job", s.job.ID()))
}

func loadSubtitles(ctx context.Context, cfg Config, opts RunOptions, logger *slog.Logger) (subtitle.Blob, error) {
	switch {
	case opts.SubtitlePath != "":
		ext := strings.ToLower(filepath.Ext(opts.SubtitlePath))
		if ext == ".srt" || ext == ".vtt" {
			return subtitle.Normalize(opts.SubtitlePath)
		}
		// Other caption formats go through ffmpeg.
		return subtitle.NewExtractor(cfg.FFmpegPath).FromFile(ctx, opts.SubtitlePath)

	case opts.ExtractSubs:
		blob, err := subtitle.NewExtractor(cfg.FFmpegPath).FromMedia(ctx, opts.VideoPath)
		if err != nil {
			// Embedded extraction is best-effort; playback proceeds without.
			logger.Warn("embedded subtitle extraction failed", slog.String("error", err.Error()))
			return nil, nil
		}
		if len(blob) == 0 {
			logger.Info("no embedded subtitle track found")
		}
		return blob, nil
	}
	return nil, nil
}

func truncateTail(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return "..." + value[len(value)-limit:]
}
