// Package util carries the logging facade, the link statistics counters and
// small formatting helpers shared by every other package.
package util

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 15:04:05"
	pterm.DefaultLogger.MaxWidth = 1000
}

// LogDebug logs a printf-style message at debug level. Hidden until
// EnableDebug raises the verbosity.
func LogDebug(format string, args ...interface{}) {
	pterm.DefaultLogger.Debug(fmt.Sprintf(format, args...))
}

// LogInfo logs a printf-style message at info level.
func LogInfo(format string, args ...interface{}) {
	pterm.DefaultLogger.Info(fmt.Sprintf(format, args...))
}

// LogWarning logs a printf-style message at warning level.
func LogWarning(format string, args ...interface{}) {
	pterm.DefaultLogger.Warn(fmt.Sprintf(format, args...))
}

// LogError logs a printf-style message at error level.
func LogError(format string, args ...interface{}) {
	pterm.DefaultLogger.Error(fmt.Sprintf(format, args...))
}

// EnableDebug lowers the logger threshold so debug messages show.
func EnableDebug() {
	pterm.DefaultLogger.Level = pterm.LogLevelDebug
}

// FormatHex renders packet bytes as space-separated uppercase hex pairs,
// the form used when dumping raw datagrams at debug level.
func FormatHex(data []byte) string {
	var b strings.Builder
	for i, c := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", c)
	}
	return b.String()
}
