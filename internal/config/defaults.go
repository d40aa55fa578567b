package config

const (
	defaultUploadDir            = "~/.local/share/descant/uploads"
	defaultDataDir              = "~/.local/share/descant"
	defaultLogDir               = "~/.local/share/descant/logs"
	defaultAPIBind              = "127.0.0.1:8617"
	defaultCutThreshold         = 30.0
	defaultSceneWorkers         = 4
	defaultCaptionBaseURL       = "https://api.openai.com/v1"
	defaultCaptionModel         = "gpt-4o"
	defaultCaptionTimeout       = 60
	defaultSpeechBaseURL        = "https://api.openai.com/v1"
	defaultSpeechModel          = "tts-1"
	defaultSpeechVoice          = "alloy"
	defaultSpeechTimeout        = 60
	defaultMaxUploadMiB         = 512
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir: defaultUploadDir,
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Analysis: Analysis{
			CutThreshold: defaultCutThreshold,
			SceneWorkers: defaultSceneWorkers,
		},
		Caption: Caption{
			BaseURL:        defaultCaptionBaseURL,
			Model:          defaultCaptionModel,
			TimeoutSeconds: defaultCaptionTimeout,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			Model:          defaultSpeechModel,
			Voice:          defaultSpeechVoice,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Server: Server{
			CORSOrigins:  []string{"*"},
			MaxUploadMiB: defaultMaxUploadMiB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Analysis:       true,
			Export:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
