package logger

import (
	"go.uber.org/zap"
)

// Category symbols used for structured, queryable log grouping.
// These replace free-text prefixes: the symbol goes in a field, not the message.
//
// Usage:
//
//	// Instead of:
//	logger.Infow(SymbolGateway + " connected", "url", url)
//
//	// Use:
//	logger.GatewayInfow("connected", "url", url)
const (
	SymbolGateway = "⇄" // transport / WS router
	SymbolBus     = "⚙" // event bus / dispatcher
	SymbolPlugin  = "✿" // plugin load/unload lifecycle
	SymbolRBAC    = "⚑" // permission checks and role mutation
	SymbolCommand = "❯" // command lexing/resolution/binding
)

// GatewayInfow logs an info message tagged with the gateway symbol (⇄).
func GatewayInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolGateway}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// GatewayDebugw logs a debug message tagged with the gateway symbol (⇄).
func GatewayDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolGateway}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// GatewayWarnw logs a warning message tagged with the gateway symbol (⇄).
func GatewayWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolGateway}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// GatewayErrorw logs an error message tagged with the gateway symbol (⇄).
func GatewayErrorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolGateway}, keysAndValues...)
		Logger.Errorw(msg, fields...)
	}
}

// BusInfow logs an info message tagged with the event bus symbol (⚙).
func BusInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolBus}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// BusDebugw logs a debug message tagged with the event bus symbol (⚙).
func BusDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolBus}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// BusWarnw logs a warning message tagged with the event bus symbol (⚙).
func BusWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolBus}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// PluginInfow logs an info message tagged with the plugin lifecycle symbol (✿).
// Used for on_load/on_close transitions.
func PluginInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolPlugin}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// PluginWarnw logs a warning message tagged with the plugin lifecycle symbol (✿).
func PluginWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolPlugin}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// PluginErrorw logs an error message tagged with the plugin lifecycle symbol (✿).
func PluginErrorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolPlugin}, keysAndValues...)
		Logger.Errorw(msg, fields...)
	}
}

// RBACInfow logs an info message tagged with the RBAC symbol (⚑).
func RBACInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolRBAC}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// RBACDebugw logs a debug message tagged with the RBAC symbol (⚑).
// Used for per-check trie walks; left at debug level since checks are frequent.
func RBACDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolRBAC}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// CommandDebugw logs a debug message tagged with the command engine symbol (❯).
func CommandDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolCommand}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// CommandWarnw logs a warning message tagged with the command engine symbol (❯).
func CommandWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolCommand}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// WithSymbol returns a logger with the given symbol as a field.
// For ad-hoc symbol usage not covered by the helpers above.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}

// SymbolInfow logs with any symbol - for dynamic symbol usage.
func SymbolInfow(symbol, msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, symbol}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}
