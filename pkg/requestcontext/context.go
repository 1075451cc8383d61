// Package requestcontext provides HTTP-independent accessors for request-scoped values.
//
// Middleware sets the values; services and stores read them without importing net/http.
//
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "cashwallet/pkg/domain"
)

type (
	accountIDKey   struct{}
	sessionIDKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// AccountID returns the authenticated account, or the nil ID when unset.
func AccountID(ctx context.Context) id.AccountID {
	if v, ok := ctx.Value(accountIDKey{}).(id.AccountID); ok {
		return v
	}
	return id.AccountID{}
}

func WithAccountID(ctx context.Context, accountID id.AccountID) context.Context {
	return context.WithValue(ctx, accountIDKey{}, accountID)
}

// SessionID returns the session the request was authenticated with.
func SessionID(ctx context.Context) id.SessionID {
	if v, ok := ctx.Value(sessionIDKey{}).(id.SessionID); ok {
		return v
	}
	return id.SessionID{}
}

func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata stores the caller's IP and a display form of its User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request-scoped clock, falling back to time.Now for workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the clock for everything downstream of ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
