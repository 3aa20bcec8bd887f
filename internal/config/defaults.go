package config

const (
	defaultDataDir            = "~/.local/share/centrifuge/data"
	defaultLogDir             = "~/.local/share/centrifuge/logs"
	defaultAPIBind            = "127.0.0.1:7914"
	defaultInputExtension     = ".txt"
	defaultStructuredMarker   = "uca"
	defaultStructuredDir      = "UCA"
	defaultOtherDir           = "Other"
	defaultIncompleteDir      = "Incomplete"
	defaultCaptureExtension   = ".tst"
	defaultCompanionExtension = ".txt"
	defaultIsolationDir       = "Isolated_Orphans"
	defaultHistoryMaxRuns     = 100
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Sorter: Sorter{
			InputExtension:   defaultInputExtension,
			StructuredMarker: defaultStructuredMarker,
			StructuredDir:    defaultStructuredDir,
			OtherDir:         defaultOtherDir,
			IncompleteDir:    defaultIncompleteDir,
		},
		Orphans: Orphans{
			CaptureExtension:   defaultCaptureExtension,
			CompanionExtension: defaultCompanionExtension,
			IsolationDir:       defaultIsolationDir,
		},
		History: History{
			MaxRuns: defaultHistoryMaxRuns,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
