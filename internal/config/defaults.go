package config

const (
	defaultDataDir             = "~/.local/share/stalker/data"
	defaultTempDir             = "~/.local/share/stalker/temp"
	defaultLogDir              = "~/.local/share/stalker/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 60
	defaultOCRBinary           = "tesseract"
	defaultOCRLanguage         = "pol"
	defaultOCRPageSegMode      = 6
	defaultOCRTimeoutSeconds   = 120
	defaultUpscaleFactor       = 3
	defaultGamma               = 0.7
	defaultMedianSize          = 3
	defaultBlurSigma           = 0.9
	defaultContrastGain        = 1.7
	defaultWhiteCutoff         = 180
	defaultMaxProcessedFiles   = 200
	defaultInactivityMinutes   = 15
	defaultReservationMinutes  = 5
	defaultSweepSeconds        = 30
	defaultMaxImagesPerBatch   = 10
	defaultWebhookTimeout      = 10
	defaultDecayWeekday        = "sunday"
	defaultDecayHour           = 3
	defaultPunishmentThreshold = 3
	defaultLotteryBanThreshold = 5
)

// defaultOCRWhitelist restricts recognition to the characters score lines can
// contain: Latin letters, Polish diacritics, digits, and common separators.
const defaultOCRWhitelist = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"ąćęłńóśźżĄĆĘŁŃÓŚŹŻ" +
	"0123456789" +
	"-_()[]. "

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			TempDir: defaultTempDir,
			LogDir:  defaultLogDir,
		},
		OCR: OCR{
			Binary:         defaultOCRBinary,
			Language:       defaultOCRLanguage,
			CharWhitelist:  defaultOCRWhitelist,
			PageSegMode:    defaultOCRPageSegMode,
			TimeoutSeconds: defaultOCRTimeoutSeconds,
		},
		Preprocess: Preprocess{
			UpscaleFactor:     defaultUpscaleFactor,
			Gamma:             defaultGamma,
			MedianSize:        defaultMedianSize,
			BlurSigma:         defaultBlurSigma,
			ContrastGain:      defaultContrastGain,
			WhiteCutoff:       defaultWhiteCutoff,
			MaxProcessedFiles: defaultMaxProcessedFiles,
		},
		Session: Session{
			InactivityTimeoutMinutes:  defaultInactivityMinutes,
			ReservationTimeoutMinutes: defaultReservationMinutes,
			SweepIntervalSeconds:      defaultSweepSeconds,
			MaxImagesPerBatch:         defaultMaxImagesPerBatch,
		},
		Decay: Decay{
			Enabled: true,
			Weekday: defaultDecayWeekday,
			Hour:    defaultDecayHour,
		},
		Webhook: Webhook{
			RequestTimeout: defaultWebhookTimeout,
			Sessions:       true,
			Decay:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
