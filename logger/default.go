package logger

import "os"

// defLogger logs at the level named by the LOG_LEVEL environment variable,
// info if unset or unknown.
var defLogger = NewSlog(envLevel(), false)

func envLevel() Level {
	level, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return InfoLevel
	}

	return level
}

func Debug(msg string, keysAndValues ...any) {
	defLogger.Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	defLogger.Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	defLogger.Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	defLogger.Error(msg, keysAndValues...)
}

func SetLevel(level Level) {
	defLogger.SetLevel(level)
}

// GetLogger returns the package default logger. Components fall back to it
// when no logger is configured.
func GetLogger() Logger {
	return defLogger
}
