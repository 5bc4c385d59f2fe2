// Package context 拓展上下文功能，将调用者身份、日志追踪等信息集成到上下文中，方便在应用程序各处传递和使用.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type ContextKey string

const (
	UserKey ContextKey = "user"
	RoleKey ContextKey = "role"

	// RoleAdmin 管理员角色，可以修改和删除任意条目.
	RoleAdmin = "admin"
)

// WithUser 将调用者 ID 存储到 context 中.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser 从 context 中获取调用者 ID，没有时返回空字符串.
func GetUser(ctx context.Context) string {
	if u, ok := ctx.Value(UserKey).(string); ok {
		return u
	}

	return ""
}

// WithRole 将调用者角色存储到 context 中.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

// GetRole 从 context 中获取调用者角色.
func GetRole(ctx context.Context) string {
	if r, ok := ctx.Value(RoleKey).(string); ok {
		return r
	}

	return ""
}

// IsAdmin 调用者是否为管理员.
func IsAdmin(ctx context.Context) bool {
	return GetRole(ctx) == RoleAdmin
}

// WithTraceContext 创建带有追踪上下文的logger.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		return logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return logger
}
