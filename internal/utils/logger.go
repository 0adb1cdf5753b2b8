package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// appFieldHook stamps every entry with the service name so lines from
// several replicas can be told apart once aggregated.
type appFieldHook struct {
	app string
}

func (h appFieldHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h appFieldHook) Fire(entry *logrus.Entry) error {
	entry.Data["app"] = h.app
	return nil
}

// InitLogger configures Logger from LOG_LEVEL (default info) and
// LOG_FORMAT ("text" or "json", default text).
func InitLogger(appName string) {
	Logger.SetOutput(os.Stdout)
	Logger.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	Logger.AddHook(appFieldHook{app: appName})
}

func parseLevel(raw string) logrus.Level {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		Logger.Warnf("Invalid LOG_LEVEL %q, defaulting to info", raw)
		return logrus.InfoLevel
	}
	return level
}

// Mask keeps the last four characters of a PII value for log lines.
func Mask(v string) string {
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}
