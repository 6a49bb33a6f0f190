package config

// Environment variables holding the three required credentials. They
// override whatever the config file says; the file may omit secrets
// entirely.
const (
	EnvPracticumToken = "PRACTICUM_TOKEN"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Telegram  TelegramConfig  `json:"telegram"`
	Poll      PollConfig      `json:"poll"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
}

type PracticumConfig struct {
	Token    string `json:"token,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	// HTTPTimeout is a Go duration string (e.g. "15s").
	HTTPTimeout string `json:"http_timeout,omitempty"`
}

type TelegramConfig struct {
	Token  string `json:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
}

// PollConfig controls when the loop polls.
//
// Schedule accepts a Go duration ("600s", "10m") or a cron expression
// ("*/10 * * * *"). Default is "600s".
type PollConfig struct {
	Schedule string `json:"schedule,omitempty"`
	// StartFrom pins the initial cursor (unix seconds). 0 means "now".
	StartFrom int64 `json:"start_from,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the optional delivery journal.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./homework-bot.journal" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Defaults returns the configuration used when the file omits a section.
func Defaults() *Config {
	return &Config{
		Poll: PollConfig{Schedule: "600s"},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}
