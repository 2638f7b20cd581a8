// Package debug provides gated diagnostic logging. Output is disabled by
// default and never goes to stdout/stderr while serving MCP, which keeps
// the stdio protocol stream clean.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/sqlembed/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// MCPMode tracks if we're running in MCP mode (set by main)
var MCPMode = false

var (
	debugMutex  sync.Mutex
	debugOutput io.Writer
	debugFile   *os.File
)

// SetMCPMode enables MCP mode which suppresses all debug output to stdio
func SetMCPMode(enabled bool) {
	MCPMode = enabled
}

// SetOutput sets a custom writer for debug output. Pass nil to disable
// debug output entirely.
func SetOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitLogFile initializes debug logging to a timestamped file under the
// system temp directory. Returns the path to the log file. Call CloseLogFile
// when done.
func InitLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "sqlembed-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseLogFile closes the debug log file if one is open.
func CloseLogFile() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		debugOutput = nil
		return err
	}
	return nil
}

// IsEnabled returns true if debug mode is enabled. In MCP mode output is
// only allowed when a log file is open, so the stdio stream stays clean.
func IsEnabled() bool {
	if MCPMode {
		debugMutex.Lock()
		fileBacked := debugFile != nil
		debugMutex.Unlock()
		if !fileBacked {
			return false
		}
	}
	if EnableDebug == "true" {
		return true
	}
	if os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true" {
		return true
	}
	return false
}

func getWriter() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints debug information only when debug mode is enabled and
// output is configured
func Printf(format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	w := getWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG] "+format, args...)
}

// Log provides structured debug logging with component names
func Log(component, format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	w := getWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogExtract provides debug logging for extraction operations
func LogExtract(format string, args ...interface{}) {
	Log("EXTRACT", format, args...)
}

// LogScan provides debug logging for file scanning operations
func LogScan(format string, args ...interface{}) {
	Log("SCAN", format, args...)
}

// LogMCP provides debug logging for MCP operations
func LogMCP(format string, args ...interface{}) {
	Log("MCP", format, args...)
}
