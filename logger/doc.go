// Package logger provides structured logging on top of zerolog with
// component-scoped loggers and a configurable global instance.
package logger
