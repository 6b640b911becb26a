package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type RuntimeConfig struct {
	APIBaseURL           string
	RequestTimeout       time.Duration
	DBPath               string
	LogFile              string
	LogLevel             string
	WeekStart            time.Weekday
	DesktopNotifications bool
	ReminderLead         time.Duration
	SchedulerBuffer      int
	ExportDir            string
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		APIBaseURL:           "http://localhost:8081/api/v1",
		RequestTimeout:       15 * time.Second,
		DBPath:               ".listo.db",
		LogFile:              "listo.log",
		LogLevel:             "info",
		WeekStart:            time.Sunday,
		DesktopNotifications: false,
		ReminderLead:         30 * time.Minute,
		SchedulerBuffer:      64,
		ExportDir:            ".",
	}
}

// LoadDotEnv reads the given .env files (default ".env") into the process
// environment. A missing file is not an error; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v := getEnvString("LISTO_API_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := getEnvInt("LISTO_REQUEST_TIMEOUT_SECONDS"); ok && v > 0 {
		cfg.RequestTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvString("LISTO_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getEnvString("LISTO_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := getEnvString("LISTO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvWeekday("LISTO_WEEK_START"); ok {
		cfg.WeekStart = v
	}
	if v, ok := getEnvBool("LISTO_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvInt("LISTO_REMINDER_LEAD_MINUTES"); ok && v >= 0 {
		cfg.ReminderLead = time.Duration(v) * time.Minute
	}
	if v, ok := getEnvInt("LISTO_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v := getEnvString("LISTO_EXPORT_DIR"); v != "" {
		cfg.ExportDir = v
	}
	return cfg
}

func getEnvString(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func getEnvInt(name string) (int, bool) {
	raw := getEnvString(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.ToLower(getEnvString(name))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

func getEnvWeekday(name string) (time.Weekday, bool) {
	switch strings.ToLower(getEnvString(name)) {
	case "sunday", "sun", "0":
		return time.Sunday, true
	case "monday", "mon", "1":
		return time.Monday, true
	default:
		return time.Sunday, false
	}
}
