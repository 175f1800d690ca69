package transcode

// EncodeConfig holds the parameters for building the ffmpeg encode command.
type EncodeConfig struct {
	FFmpegPath string // ffmpeg binary; empty means "ffmpeg" from PATH
	Input      string // source media file path
	Output     string // destination path; stdoutSink writes to stdout. Filled in by the Job constructors.
	Bitrate    string // target video bitrate, e.g. "6000k"
	Preset     string // x264 preset
	ReadyBytes int64  // file mode: output bytes buffered before WaitReady unblocks
}

const (
	// DefaultBitrate is the video bitrate used when none is configured.
	DefaultBitrate = "6000k"

	// DefaultReadyBytes is how much encoded output must exist on disk
	// before a file-mode job reports ready. Handing the player a shorter
	// file risks it outrunning the encoder.
	DefaultReadyBytes int64 = 60000000

	defaultPreset = "ultrafast"

	// fragDuration keeps mp4 fragments short (microseconds) so playback
	// can begin long before encoding finishes.
	fragDuration = "3000"

	// stdoutSink is ffmpeg's name for writing the muxed output to stdout.
	stdoutSink = "-"
)

// buildEncodeArgs constructs the ffmpeg argument list from cfg.
func buildEncodeArgs(cfg EncodeConfig) []string {
	bitrate := cfg.Bitrate
	if bitrate == "" {
		bitrate = DefaultBitrate
	}
	preset := cfg.Preset
	if preset == "" {
		preset = defaultPreset
	}

	args := []string{
		"-y", "-nostdin",
		"-i", cfg.Input,
		"-preset", preset,
		"-f", "mp4",
		"-frag_duration", fragDuration,
		"-b:v", bitrate,
		"-loglevel", "error",
	}

	if cfg.Output == stdoutSink {
		// A pipe gives the muxer nothing to sniff, so codecs are named
		// explicitly.
		args = append(args, "-vcodec", "h264", "-acodec", "aac", stdoutSink)
	} else {
		args = append(args, cfg.Output)
	}

	return args
}
