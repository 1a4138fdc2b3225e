package logging

import (
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// Logger is the global logger instance
var Logger *zap.Logger

// Setup builds the process logger. Debug mode, or an interactive stderr,
// switches to the human readable development encoder.
func Setup(debug bool, appName, appVersion string) error {
	var err error
	var cfg zap.Config

	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		if term.IsTerminal(int(os.Stderr.Fd())) {
			cfg.Encoding = "console"
		}
	}

	// Add default fields
	cfg.InitialFields = map[string]interface{}{
		"appName":    appName,
		"appVersion": appVersion,
	}

	Logger, err = cfg.Build()
	if err != nil {
		Logger = zap.NewExample()
		return err
	}

	zap.ReplaceGlobals(Logger)
	return nil
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
