package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/thotypous/chromecastplay/internal/api/http"
	"github.com/thotypous/chromecastplay/internal/app"
	"github.com/thotypous/chromecastplay/internal/device"
	"github.com/thotypous/chromecastplay/internal/metrics"
	"github.com/thotypous/chromecastplay/internal/netutil"
	"github.com/thotypous/chromecastplay/internal/telemetry"
)

func run(ctx context.Context, flags *rootFlags, stdout io.Writer) error {
	cfg, err := app.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}
	cfg = applyFlags(cfg, flags)

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "chromecastplay")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	rootCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.RunOptions{
		VideoPath:    flags.video,
		SubtitlePath: flags.subtitles,
		ExtractSubs:  flags.extractSubs,
		Growable:     flags.growable,
		Chunked:      flags.chunked,
		Transcode:    flags.transcode,
		Bitrate:      flags.bitrate,
	}

	session, err := app.NewSession(rootCtx, cfg, opts, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	bindIP := cfg.BindIP
	if bindIP == "" {
		bindIP, err = netutil.OutboundIP()
		if err != nil {
			return fmt.Errorf("determine serving address (set --ip): %w", err)
		}
	}
	addr := net.JoinHostPort(bindIP, strconv.Itoa(cfg.Port))

	handler := apihttp.NewServer(session.Source,
		apihttp.WithSubtitles(session.Subtitles),
		apihttp.WithMediaName(session.MediaName),
		apihttp.WithLogger(logger),
	)

	m := device.Media{
		URL:         "http://" + addr + "/video",
		ContentType: session.Source.ContentType(),
		Unseekable:  session.Unseekable,
	}
	if len(session.Subtitles) > 0 {
		m.SubtitleURL = "http://" + addr + "/sub"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server started",
		slog.String("addr", addr),
		slog.String("media", session.MediaName),
		slog.String("kind", string(session.Source.Kind())),
		slog.Bool("subtitles", len(session.Subtitles) > 0),
	)
	printBanner(stdout, session.MediaName, m)

	serveCtx, cancelServe := context.WithCancel(rootCtx)
	defer cancelServe()

	g, gctx := errgroup.WithContext(serveCtx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		handler.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		// Playback ending is the normal reason to stop serving.
		defer cancelServe()
		return app.Play(gctx, playbackFinder(), cfg.Device, m, logger)
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

// playbackFinder returns the device driver media is handed over with. No
// discovery driver is linked into this build, so the session is started
// from the device side against the printed URLs.
func playbackFinder() device.Finder {
	return nil
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, options))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
