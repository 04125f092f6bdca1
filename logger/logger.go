// Package logger is memgraph's structured logger: leveled output with
// caller (function/file/line) context, atomic level checks so a disabled
// level costs almost nothing, and a per-subsystem trace gate for the
// store/pipeline/reconcile/scanner/schema components.
//
// Log line shape:
//
//	YYYY/MM/DD HH:MM:SS.ssssss [PID:GID] [LEVEL] function.file:line: message
package logger

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel is a log message's severity. Higher values are more severe;
// setting a level suppresses everything below it.
type LogLevel int32

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var (
	currentLevel atomic.Int32

	levelNames = map[LogLevel]string{
		TRACE: "TRACE",
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
	}

	// traceSubsystems gates Trace/TraceIf output per component, so a noisy
	// subsystem (e.g. "store") can be enabled without drowning the rest of
	// the log in scanner or reconcile trace lines. Known subsystem names:
	// "store", "pipeline", "reconcile", "scanner", "schema".
	traceSubsystems = make(map[string]bool)
	traceMutex      sync.RWMutex

	processID = os.Getpid()

	logger *log.Logger
)

func init() {
	logger = log.New(os.Stdout, "", 0)
	currentLevel.Store(int32(INFO))
}

// SetLogLevel sets the minimum level that will be emitted.
func SetLogLevel(level string) error {
	switch strings.ToUpper(level) {
	case "TRACE":
		currentLevel.Store(int32(TRACE))
	case "DEBUG":
		currentLevel.Store(int32(DEBUG))
	case "INFO":
		currentLevel.Store(int32(INFO))
	case "WARN":
		currentLevel.Store(int32(WARN))
	case "ERROR":
		currentLevel.Store(int32(ERROR))
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}
	Info("log level changed to %s", strings.ToUpper(level))
	return nil
}

// GetLogLevel returns the current minimum level's name.
func GetLogLevel() string {
	return levelNames[LogLevel(currentLevel.Load())]
}

// EnableTrace turns on Trace/TraceIf output for the named subsystems.
func EnableTrace(subsystems ...string) {
	traceMutex.Lock()
	defer traceMutex.Unlock()
	for _, s := range subsystems {
		traceSubsystems[s] = true
	}
}

// DisableTrace turns off trace output for the named subsystems.
func DisableTrace(subsystems ...string) {
	traceMutex.Lock()
	defer traceMutex.Unlock()
	for _, s := range subsystems {
		delete(traceSubsystems, s)
	}
}

func isTraceEnabled(subsystem string) bool {
	traceMutex.RLock()
	defer traceMutex.RUnlock()
	return traceSubsystems[subsystem]
}

func formatMessage(level LogLevel, skip int, format string, args ...interface{}) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		file = "unknown"
		line = 0
	}
	if idx := strings.LastIndex(file, "/"); idx != -1 {
		file = file[idx+1:]
	}
	if idx := strings.LastIndex(file, ".go"); idx != -1 {
		file = file[:idx]
	}

	funcName := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		fullName := fn.Name()
		if idx := strings.LastIndex(fullName, "."); idx != -1 {
			funcName = fullName[idx+1:]
		}
	}

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006/01/02 15:04:05.000000")
	return fmt.Sprintf("%s [%d:%d] [%s] %s.%s:%d: %s",
		timestamp, processID, getGoroutineID(), levelNames[level], funcName, file, line, msg)
}

// getGoroutineID extracts the current goroutine's id from its stack trace
// header, for correlating log lines within one request.
func getGoroutineID() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := strings.Fields(string(buf[:n]))[1]
	id := 0
	fmt.Sscanf(idField, "%d", &id)
	return id
}

func logMessage(level LogLevel, skip int, format string, args ...interface{}) {
	if level < LogLevel(currentLevel.Load()) {
		return
	}
	logger.Println(formatMessage(level, skip, format, args...))
}

// TraceIf logs a trace message only if both the TRACE level and the named
// subsystem are enabled.
func TraceIf(subsystem string, format string, args ...interface{}) {
	if LogLevel(currentLevel.Load()) > TRACE || !isTraceEnabled(subsystem) {
		return
	}
	logMessage(TRACE, 3, "[%s] %s", subsystem, fmt.Sprintf(format, args...))
}

func Trace(format string, args ...interface{}) { logMessage(TRACE, 3, format, args...) }
func Debug(format string, args ...interface{}) { logMessage(DEBUG, 3, format, args...) }
func Info(format string, args ...interface{})  { logMessage(INFO, 3, format, args...) }
func Warn(format string, args ...interface{})  { logMessage(WARN, 3, format, args...) }
func Error(format string, args ...interface{}) { logMessage(ERROR, 3, format, args...) }

// Fatal logs at ERROR and exits the process.
func Fatal(format string, args ...interface{}) {
	logger.Println(formatMessage(ERROR, 2, format, args...))
	os.Exit(1)
}

// Panic logs at ERROR and panics with the formatted message.
func Panic(format string, args ...interface{}) {
	logger.Println(formatMessage(ERROR, 2, format, args...))
	panic(fmt.Sprintf(format, args...))
}

// Configure reads MEMGRAPH_LOG_LEVEL and MEMGRAPH_TRACE_SUBSYSTEMS
// (comma-separated) from the environment. Called once at process startup by
// cmd/memgraphd and cmd/memgraphctl, before any other logger call.
func Configure() {
	if level := os.Getenv("MEMGRAPH_LOG_LEVEL"); level != "" {
		if err := SetLogLevel(level); err != nil {
			Warn("logger: %v", err)
		}
	}
	if trace := os.Getenv("MEMGRAPH_TRACE_SUBSYSTEMS"); trace != "" {
		subsystems := strings.Split(trace, ",")
		for i, s := range subsystems {
			subsystems[i] = strings.TrimSpace(s)
		}
		EnableTrace(subsystems...)
	}
}
