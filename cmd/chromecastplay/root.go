package main

import (
	"github.com/spf13/cobra"

	"github.com/thotypous/chromecastplay/internal/app"
)

type rootFlags struct {
	video       string
	subtitles   string
	extractSubs bool
	growable    bool
	chunked     bool
	transcode   bool
	bitrate     string
	device      string
	bindIP      string
	port        int
	configPath  string
	logLevel    string
	logFormat   string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "chromecastplay",
		Short:         "Serve a local video over HTTP for a cast device on the same network",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flags.video, "video", "v", "", "Path to the video file to serve")
	cmd.Flags().StringVarP(&flags.subtitles, "subtitles", "s", "", "Path to a subtitle file (SubRip or WebVTT)")
	cmd.Flags().BoolVar(&flags.extractSubs, "extract-subs", false, "Extract the first embedded subtitle track from the video")
	cmd.Flags().BoolVarP(&flags.growable, "growable", "g", false, "Serve a file another process is still writing")
	cmd.Flags().BoolVarP(&flags.chunked, "chunked", "c", false, "Serve forward-only, without range support")
	cmd.Flags().BoolVarP(&flags.transcode, "transcode", "t", false, "Re-encode to fragmented MP4 while serving")
	cmd.Flags().StringVarP(&flags.bitrate, "bitrate", "b", "", "Video bitrate for transcoding, implies --transcode (e.g. 3000k)")
	cmd.Flags().StringVarP(&flags.device, "device", "d", "", "Friendly name of the playback device")
	cmd.Flags().StringVarP(&flags.bindIP, "ip", "i", "", "Address to serve on (default: the outbound interface)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "TCP port to serve on")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Configuration file path")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("video")

	return cmd
}

// applyFlags overlays the flags that were actually set onto the loaded
// configuration. Flags win over both the file and the environment.
func applyFlags(cfg app.Config, flags *rootFlags) app.Config {
	if flags.port != 0 {
		cfg.Port = flags.port
	}
	if flags.bindIP != "" {
		cfg.BindIP = flags.bindIP
	}
	if flags.device != "" {
		cfg.Device = flags.device
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.LogFormat = flags.logFormat
	}
	return cfg
}
