package config

const (
	defaultProxyFolder     = "~/.local/share/standin/proxies"
	defaultJobsHistory     = "~/.local/share/standin/jobs.db"
	defaultJobsConcurrency = 1
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultMeltBinary      = "melt"
)

// KnownHardwareEncoders lists the encoder identifiers the dispatch chain
// understands, in fallback order.
var KnownHardwareEncoders = []string{
	"hevc_nvenc",
	"hevc_qsv",
	"hevc_amf",
	"hevc_vaapi",
	"h264_vaapi",
	"hevc_videotoolbox",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Proxy: Proxy{
			Enabled:          true,
			Folder:           defaultProxyFolder,
			UseProjectFolder: true,
		},
		Encode: Encode{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
			Melt:    defaultMeltBinary,
		},
		Jobs: Jobs{
			Concurrency: defaultJobsConcurrency,
			History:     defaultJobsHistory,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
