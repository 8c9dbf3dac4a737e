// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/Slashx124/mynta-core/bls"
	"github.com/Slashx124/mynta-core/dex"
	"github.com/Slashx124/mynta-core/evodb"
	"github.com/Slashx124/mynta-core/llmq"
	"github.com/Slashx124/mynta-core/mnlist"
)

// logWriter implements an io.Writer that outputs to both standard output
// and the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var (
	// backendLog is the logging backend used to create all subsystem
	// loggers.  The backend must not be used before the log rotator has
	// been initialized, or data races and/or nil pointer dereferences
	// will occur.
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs.  It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	myntLog = backendLog.Logger("MYNT")
	blssLog = backendLog.Logger("BLSS")
	mnlsLog = backendLog.Logger("MNLS")
	llmqLog = backendLog.Logger("LLMQ")
	islkLog = backendLog.Logger("ISLK")
	clckLog = backendLog.Logger("CLCK")
	dexcLog = backendLog.Logger("DEX")
	evdbLog = backendLog.Logger("EVDB")
)

// Initialize package-global logger variables.
func init() {
	bls.UseLogger(blssLog)
	mnlist.UseLogger(mnlsLog)
	llmq.UseLogger(llmqLog)
	llmq.UseInstantSendLogger(islkLog)
	llmq.UseChainLocksLogger(clckLog)
	dex.UseLogger(dexcLog)
	evodb.UseLogger(evdbLog)
}

// subsystemLoggers maps each subsystem identifier to its associated
// logger.
var subsystemLoggers = map[string]btclog.Logger{
	"MYNT": myntLog,
	"BLSS": blssLog,
	"MNLS": mnlsLog,
	"LLMQ": llmqLog,
	"ISLK": islkLog,
	"CLCK": clckLog,
	"DEX":  dexcLog,
	"EVDB": evdbLog,
}

// initLogRotator initializes the logging rotator to write logs to logFile
// and create roll files in the same directory.  It must be called before
// the package-global log rotator variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}
	logRotator = r
}

// setLogLevel sets the logging level for provided subsystem.  Invalid
// subsystems are ignored.
func setLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.
func setLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}

// validLogLevel returns whether or not logLevel is a valid debug log
// level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}
