package logger

import (
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Fields map[string]any

var sensitiveKeys = map[string]struct{}{
	"accountnumber":           {},
	"account_number":          {},
	"settlementaccountnumber": {},
	"applytoaccountnumber":    {},
	"routingnumber":           {},
	"routing_number":          {},
	"password":                {},
	"channelkey":              {},
	"accountnumberkey":        {},
	"authorization":           {},
}

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init replaces the package logger. Development mode uses zap's console encoder.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)
	if strings.EqualFold(strings.TrimSpace(env), "development") {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	mu.Lock()
	base = l
	mu.Unlock()
	return nil
}

func Sync() {
	_ = current().Sync()
}

func Info(message string, fields Fields) {
	current().Info(message, zapFields(fields)...)
}

func Warn(message string, fields Fields) {
	current().Warn(message, zapFields(fields)...)
}

func Error(message string, err error, fields Fields) {
	zf := zapFields(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	current().Error(message, zf...)
}

func SanitizePayload(payload any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}

	return sanitizeValue(data)
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func zapFields(fields Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	sanitized, ok := SanitizePayload(fields).(map[string]any)
	if !ok {
		return []zap.Field{zap.Any("fields", sanitized)}
	}

	out := make([]zap.Field, 0, len(sanitized))
	for key, value := range sanitized {
		out = append(out, zap.Any(key, value))
	}
	return out
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			if isSensitiveKey(key) {
				out[key] = "******"
				continue
			}
			out[key] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", ""))
	_, ok := sensitiveKeys[normalized]
	return ok
}
