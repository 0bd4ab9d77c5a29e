package config

const (
	defaultConfigPath  = "~/.config/storyreel/config.toml"
	projectConfigName  = "storyreel.toml"
	defaultStorePath   = "~/.local/share/storyreel/storyreel.db"
	defaultBundleOut   = "bundle.json"
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultRampUpMS    = 400
	defaultRampDownMS  = 400
	defaultAudioHoldMS = 3000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Store: Store{
			Path: defaultStorePath,
		},
		Player: Player{
			RampUpMS:           defaultRampUpMS,
			RampDownMS:         defaultRampDownMS,
			AudioMissingHoldMS: defaultAudioHoldMS,
		},
		Bundle: Bundle{
			Output: defaultBundleOut,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
