package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

func init() {
	Global = NewSubLogger("LOG")
	EngineMgr = NewSubLogger("ENGINE")
	GatewayMgr = NewSubLogger("GATEWAY")
	BackTester = NewSubLogger("BACKTESTER")
	Strategy = NewSubLogger("STRATEGY")
}

// NewSubLogger registers a new sub logger with the default level set and
// stderr output. Requesting an already registered name returns the existing
// sub logger.
func NewSubLogger(name string) *SubLogger {
	name = strings.ToUpper(name)
	mu.Lock()
	defer mu.Unlock()
	if sl, ok := subLoggers[name]; ok {
		return sl
	}
	sl := &SubLogger{
		name:   name,
		levels: Levels{Info: true, Warn: true, Error: true},
		output: os.Stderr,
	}
	subLoggers[name] = sl
	return sl
}

// SetLevels overrides the enabled levels on a sub logger
func (sl *SubLogger) SetLevels(l Levels) {
	mu.Lock()
	sl.levels = l
	mu.Unlock()
}

// SetOutput overrides the output writer on a sub logger
func (sl *SubLogger) SetOutput(w io.Writer) {
	mu.Lock()
	sl.output = w
	mu.Unlock()
}

// SplitLevel converts a pipe delimited level string to the Levels flag set
func SplitLevel(level string) Levels {
	var l Levels
	for _, v := range strings.Split(strings.ToUpper(level), "|") {
		switch v {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return l
}

func (sl *SubLogger) stage(header, data string) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(sl.output, "%s%s%s%s%s%s\n",
		time.Now().Format(timestampFormat), spacer, header, spacer, sl.name+spacer, data)
}

// Info takes a pointer sub logger and writes an info entry
func Info(sl *SubLogger, data string) {
	if sl == nil || !sl.levels.Info {
		return
	}
	sl.stage("INFO ", data)
}

// Infof takes a pointer sub logger, a format string and args and writes an
// info entry
func Infof(sl *SubLogger, format string, v ...interface{}) {
	if sl == nil || !sl.levels.Info {
		return
	}
	sl.stage("INFO ", fmt.Sprintf(format, v...))
}

// Debug takes a pointer sub logger and writes a debug entry
func Debug(sl *SubLogger, data string) {
	if sl == nil || !sl.levels.Debug {
		return
	}
	sl.stage("DEBUG", data)
}

// Debugf takes a pointer sub logger, a format string and args and writes a
// debug entry
func Debugf(sl *SubLogger, format string, v ...interface{}) {
	if sl == nil || !sl.levels.Debug {
		return
	}
	sl.stage("DEBUG", fmt.Sprintf(format, v...))
}

// Warn takes a pointer sub logger and writes a warning entry
func Warn(sl *SubLogger, data string) {
	if sl == nil || !sl.levels.Warn {
		return
	}
	sl.stage("WARN ", data)
}

// Warnf takes a pointer sub logger, a format string and args and writes a
// warning entry
func Warnf(sl *SubLogger, format string, v ...interface{}) {
	if sl == nil || !sl.levels.Warn {
		return
	}
	sl.stage("WARN ", fmt.Sprintf(format, v...))
}

// Error takes a pointer sub logger and writes an error entry
func Error(sl *SubLogger, data string) {
	if sl == nil || !sl.levels.Error {
		return
	}
	sl.stage("ERROR", data)
}

// Errorf takes a pointer sub logger, a format string and args and writes an
// error entry
func Errorf(sl *SubLogger, format string, v ...interface{}) {
	if sl == nil || !sl.levels.Error {
		return
	}
	sl.stage("ERROR", fmt.Sprintf(format, v...))
}

// WriteLevel routes a preformatted message to the matching level writer
func WriteLevel(sl *SubLogger, lvl Level, data string) {
	switch lvl {
	case DebugLvl:
		Debug(sl, data)
	case WarnLvl:
		Warn(sl, data)
	case ErrorLvl:
		Error(sl, data)
	default:
		Info(sl, data)
	}
}
