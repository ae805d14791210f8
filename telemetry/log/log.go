// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log wraps zap behind a small structured Logger interface
// that takes zap.Field values. No other package in the core imports
// it.
package log

import "go.uber.org/zap"

// Logger is the structured logging interface; NewProduction,
// NewDevelopment and NewNoOp return implementations of it.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type zapLogger struct{ l *zap.Logger }

// NewProduction builds a Logger backed by zap's production preset
// (JSON encoding, info level and above).
func NewProduction() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapLogger{l: l}, nil
}

// NewDevelopment builds a Logger backed by zap's development preset
// (console encoding, debug level and above, caller info).
func NewDevelopment() (Logger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &zapLogger{l: l}, nil
}

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }

func (z *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

// NoOp is a Logger that discards everything, used in tests and
// components that were not handed a real logger.
type NoOp struct{}

// NewNoOp returns a Logger that discards every call.
func NewNoOp() Logger { return NoOp{} }

func (NoOp) Debug(string, ...zap.Field)  {}
func (NoOp) Info(string, ...zap.Field)   {}
func (NoOp) Warn(string, ...zap.Field)   {}
func (NoOp) Error(string, ...zap.Field)  {}
func (n NoOp) With(...zap.Field) Logger  { return n }
