// Package logging provides categorized file-based logging for grindbot.
// Logs are written to <data>/logs/ with a separate file per category.
// File logging is off until Configure enables it; every helper is a
// silent no-op before that, so library code can log unconditionally.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup and shutdown
	CategoryLoop      Category = "loop"      // AI player loop iterations
	CategoryGoals     Category = "goals"     // Goal selection
	CategoryPlanner   Category = "planner"   // GOAP search
	CategoryActions   Category = "actions"   // Action implementations
	CategoryExecutor  Category = "executor"  // Action execution, retries
	CategoryClient    Category = "client"    // Game server HTTP traffic
	CategoryCooldown  Category = "cooldown"  // Cooldown gate waits
	CategoryKnowledge Category = "knowledge" // Knowledge base learning
	CategoryWorldmap  Category = "worldmap"  // Map cache scans and searches
	CategoryJournal   Category = "journal"   // Action journal writes
	CategoryConfig    Category = "config"    // Config loads and reloads
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex

	configMu sync.RWMutex
	logsDir  string
	enabled  bool
	logLevel = LevelInfo
)

// Configure enables file logging under dir/logs at the given level
// ("debug", "info", "warning"/"warn", "error"). Called once at startup
// by the CLI; safe to call again to change the level.
func Configure(dir, level string) error {
	configMu.Lock()
	defer configMu.Unlock()

	switch level {
	case "debug", "DEBUG":
		logLevel = LevelDebug
	case "info", "INFO", "":
		logLevel = LevelInfo
	case "warn", "warning", "WARN", "WARNING":
		logLevel = LevelWarn
	case "error", "ERROR":
		logLevel = LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}

	logsDir = filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	enabled = true
	return nil
}

// SetLevel changes the minimum level at runtime.
func SetLevel(level int) {
	configMu.Lock()
	logLevel = level
	configMu.Unlock()
}

func isEnabled() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return enabled
}

func currentLevel() int {
	configMu.RLock()
	defer configMu.RUnlock()
	return logLevel
}

// Get returns (or creates) a logger for the given category. Returns a
// no-op logger when logging is not configured.
func Get(category Category) *Logger {
	if !isEnabled() {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date-prefixed file names make rotation a delete-by-prefix.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || currentLevel() > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || currentLevel() > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || currentLevel() > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// Loop logs to the loop category.
func Loop(format string, args ...interface{}) {
	Get(CategoryLoop).Info(format, args...)
}

// LoopDebug logs debug to the loop category.
func LoopDebug(format string, args ...interface{}) {
	Get(CategoryLoop).Debug(format, args...)
}

// Goals logs to the goals category.
func Goals(format string, args ...interface{}) {
	Get(CategoryGoals).Info(format, args...)
}

// GoalsDebug logs debug to the goals category.
func GoalsDebug(format string, args ...interface{}) {
	Get(CategoryGoals).Debug(format, args...)
}

// Planner logs to the planner category.
func Planner(format string, args ...interface{}) {
	Get(CategoryPlanner).Info(format, args...)
}

// PlannerDebug logs debug to the planner category.
func PlannerDebug(format string, args ...interface{}) {
	Get(CategoryPlanner).Debug(format, args...)
}

// Actions logs to the actions category.
func Actions(format string, args ...interface{}) {
	Get(CategoryActions).Info(format, args...)
}

// ActionsDebug logs debug to the actions category.
func ActionsDebug(format string, args ...interface{}) {
	Get(CategoryActions).Debug(format, args...)
}

// Executor logs to the executor category.
func Executor(format string, args ...interface{}) {
	Get(CategoryExecutor).Info(format, args...)
}

// ExecutorDebug logs debug to the executor category.
func ExecutorDebug(format string, args ...interface{}) {
	Get(CategoryExecutor).Debug(format, args...)
}

// Client logs to the client category.
func Client(format string, args ...interface{}) {
	Get(CategoryClient).Info(format, args...)
}

// ClientDebug logs debug to the client category.
func ClientDebug(format string, args ...interface{}) {
	Get(CategoryClient).Debug(format, args...)
}

// Cooldown logs to the cooldown category.
func Cooldown(format string, args ...interface{}) {
	Get(CategoryCooldown).Info(format, args...)
}

// CooldownDebug logs debug to the cooldown category.
func CooldownDebug(format string, args ...interface{}) {
	Get(CategoryCooldown).Debug(format, args...)
}

// Knowledge logs to the knowledge category.
func Knowledge(format string, args ...interface{}) {
	Get(CategoryKnowledge).Info(format, args...)
}

// KnowledgeDebug logs debug to the knowledge category.
func KnowledgeDebug(format string, args ...interface{}) {
	Get(CategoryKnowledge).Debug(format, args...)
}

// Worldmap logs to the worldmap category.
func Worldmap(format string, args ...interface{}) {
	Get(CategoryWorldmap).Info(format, args...)
}

// WorldmapDebug logs debug to the worldmap category.
func WorldmapDebug(format string, args ...interface{}) {
	Get(CategoryWorldmap).Debug(format, args...)
}

// Journal logs to the journal category.
func Journal(format string, args ...interface{}) {
	Get(CategoryJournal).Info(format, args...)
}

// Config logs to the config category.
func Config(format string, args ...interface{}) {
	Get(CategoryConfig).Info(format, args...)
}
