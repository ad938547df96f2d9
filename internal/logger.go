package internal

import (
	"fmt"
	"glodipay/entity"
	"glodipay/services"
	"log"
	"time"
)

// Logger is a per-module leveled logger. Debug messages are suppressed unless
// the debug flag is set. When a database is attached, every record is also
// written to the log collection; sink failures are never fatal.
type Logger struct {
	module   string
	debug    bool
	database services.Database
}

func NewLogger(module string, debug bool, database services.Database) *Logger {
	return &Logger{
		module:   module,
		debug:    debug,
		database: database,
	}
}

func (l *Logger) Debug(text string) {
	if !l.debug {
		return
	}
	l.write("DEBUG", text)
}

func (l *Logger) Info(text string) {
	l.write("INFO", text)
}

func (l *Logger) Warn(text string) {
	l.write("WARN", text)
}

func (l *Logger) Error(text string, err error) {
	l.write("ERROR", fmt.Sprintf("%s: %v", text, err))
}

func (l *Logger) write(level, text string) {
	log.Printf("%s: %s: %s", level, l.module, text)
	if l.database == nil {
		return
	}
	message := &entity.LogMessage{
		Time:   time.Now(),
		Level:  level,
		Module: l.module,
		Text:   text,
	}
	if err := l.database.WriteLogMessage(message); err != nil {
		log.Printf("ERROR: %s: write log message: %v", l.module, err)
	}
}
