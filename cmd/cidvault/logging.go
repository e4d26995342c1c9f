package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// newLogger builds the process logger. Level precedence (flag, then
// CIDVAULT_LOG_LEVEL, then config) is resolved before this is called. With
// logFile set, entries are appended there as JSON instead of going to stderr.
func newLogger(level, logFile string, stderr io.Writer) (*logrus.Logger, io.Closer, error) {
	lvl, err := parseLogLevel(level)
	if err != nil {
		return nil, nil, err
	}

	log := logrus.New()
	log.SetLevel(lvl)
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if logFile == "" {
		return log, nil, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log, f, nil
}

func parseLogLevel(raw string) (logrus.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(value)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return lvl, nil
}
