package logger

import "go.uber.org/zap"

// Symbol-aware logging helpers.
// These functions log with the symbol as a structured field, not in the message.
//
// Usage:
//
//	// Instead of:
//	logger.Infow(SymbolQueue + " session admitted", "session_id", id)
//
//	// Use:
//	logger.QueueInfow("session admitted", "session_id", id)
//
// This makes logs queryable by symbol and keeps messages clean.
const (
	SymbolProxy     = "→" // reverse proxy forwarding
	SymbolQueue     = "⏳" // admission controller / waiting room
	SymbolProc      = "⚙" // process supervisor
	SymbolTunnel    = "⛓" // tunnel supervisor
	SymbolBroadcast = "📡" // broadcast hub fan-out
)

// QueueInfow logs an info message with the admission-queue symbol (⏳)
func QueueInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolQueue}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// QueueDebugw logs a debug message with the admission-queue symbol (⏳)
func QueueDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolQueue}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// ProcInfow logs an info message with the process-supervisor symbol (⚙)
func ProcInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolProc}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// ProcWarnw logs a warning message with the process-supervisor symbol (⚙)
func ProcWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolProc}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// TunnelInfow logs an info message with the tunnel-supervisor symbol (⛓)
func TunnelInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolTunnel}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// ProxyInfow logs an info message with the reverse-proxy symbol (→)
func ProxyInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolProxy}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// WithSymbol returns a logger with the given symbol as a field.
// For ad-hoc symbol usage not covered by the helpers above.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}

// SymbolInfow logs with any symbol - for dynamic symbol usage
func SymbolInfow(symbol, msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, symbol}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}
