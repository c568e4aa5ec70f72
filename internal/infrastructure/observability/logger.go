package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func InitLogger(level string, output io.Writer) zerolog.Logger {
	if output == nil {
		output = os.Stdout
	}

	return zerolog.New(output).
		Level(ParseLogLevel(level)).
		With().
		Timestamp().
		Caller().
		Logger()
}

func ParseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// MaskSecret keeps the key prefix (sk_test_, pk_live_, ...) and the last four
// characters so operators can tell credentials apart in logs.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	prefix := ""
	if i := strings.LastIndex(secret[:len(secret)-4], "_"); i >= 0 {
		prefix = secret[:i+1]
	}
	return prefix + "****" + secret[len(secret)-4:]
}
