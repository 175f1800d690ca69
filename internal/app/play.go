package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thotypous/chromecastplay/internal/device"
)

var statusPollInterval = time.Second

// Play hands m to a playback device and blocks until the device reports the
// media is over or ctx is done. A nil finder means no device driver is wired
// in; Play then just blocks until ctx is done so the server stays up for a
// device pointed at it by other means.
func Play(ctx context.Context, finder device.Finder, deviceName string, m device.Media, logger *slog.Logger) error {
	if finder == nil {
		logger.Info("no device driver configured, serving until interrupted")
		<-ctx.Done()
		return nil
	}

	ctrl, err := finder.Find(ctx, deviceName)
	if err != nil {
		return fmt.Errorf("find playback device: %w", err)
	}
	logger.Info("playback device found", slog.String("device", ctrl.Name()))

	if err := ctrl.PlayMedia(ctx, m); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	logger.Info("playback started",
		slog.String("url", m.URL),
		slog.String("contentType", m.ContentType),
		slog.Bool("subtitles", m.SubtitleURL != ""),
	)

	// The device may still report idle for a few polls while it buffers, so
	// idle only means finished once a non-idle state has been seen.
	started := false

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = ctrl.Stop(stopCtx)
			cancel()
			return nil

		case <-ticker.C:
			st, err := ctrl.Status(ctx)
			if err != nil {
				// A vanished device ends the session the same way idle does.
				logger.Warn("device status poll failed", slog.String("error", err.Error()))
				return nil
			}
			if st.State != device.StateIdle {
				started = true
				continue
			}
			if started {
				logger.Info("playback finished", slog.Duration("position", st.CurrentTime))
				return nil
			}
		}
	}
}
