package config

const (
	defaultOutputDir = "~/.local/share/clipforge/videos"
	defaultWorkDir   = "~/.local/share/clipforge/work"
	defaultLogDir    = "~/.local/share/clipforge/logs"
	defaultAPIBind   = "127.0.0.1:7519"

	defaultJobWorkers        = 2
	defaultQueueDepth        = 32
	defaultProbeWorkers      = 10
	defaultTranscribeWorkers = 5

	defaultProbeTimeout      = 30
	defaultTranscribeTimeout = 300
	defaultEncodeTimeout     = 600

	defaultMaxLineChars    = 42
	defaultMaxLineDuration = 5.0

	defaultEncoderBinary = "ffmpeg"
	defaultProbeBinary   = "ffprobe"
	defaultEncoderPreset = "fast"
	defaultEncoderCRF    = 23
	defaultPadSeconds    = 2
	defaultOverlayScale  = 500

	defaultWhisperBinary = "whisper"
	defaultWhisperModel  = "medium"

	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Workers: Workers{
			JobWorkers:        defaultJobWorkers,
			QueueDepth:        defaultQueueDepth,
			ProbeWorkers:      defaultProbeWorkers,
			TranscribeWorkers: defaultTranscribeWorkers,
		},
		Timeouts: Timeouts{
			ProbeSeconds:      defaultProbeTimeout,
			TranscribeSeconds: defaultTranscribeTimeout,
			EncodeSeconds:     defaultEncodeTimeout,
		},
		Subtitles: Subtitles{
			Enabled:         true,
			MaxLineChars:    defaultMaxLineChars,
			MaxLineDuration: defaultMaxLineDuration,
		},
		Encoder: Encoder{
			Binary:       defaultEncoderBinary,
			ProbeBinary:  defaultProbeBinary,
			Preset:       defaultEncoderPreset,
			CRF:          defaultEncoderCRF,
			PadSeconds:   defaultPadSeconds,
			OverlayScale: defaultOverlayScale,
		},
		Whisper: Whisper{
			Binary: defaultWhisperBinary,
			Model:  defaultWhisperModel,
		},
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}
