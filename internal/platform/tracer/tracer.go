// Package tracer is a thin tracing abstraction so services can emit spans
// without importing OpenTelemetry everywhere.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }
func Int64(key string, value int64) Attribute { return Attribute{Key: key, Value: value} }

// Duration records d in milliseconds.
func Duration(key string, d time.Duration) Attribute {
	return Attribute{Key: key, Value: d.Milliseconds()}
}

// HashEmail returns a short, stable digest of an address so traces can be
// correlated without carrying the address itself.
func HashEmail(address string) string {
	if address == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(address)))
	return hex.EncodeToString(sum[:8])
}

// Span names.
const (
	SpanRequestCode   = "registration.request_code"
	SpanVerifyCode    = "registration.verify_code"
	SpanCreateAccount = "registration.create_account"
	SpanRemoteCall    = "remote.call"
)

// Attribute keys.
const (
	AttrWorkflowID = "workflow.id"
	AttrEmailHash  = "email.hash"
	AttrOutcome    = "outcome"
	AttrEndpoint   = "remote.endpoint"
	AttrStatus     = "http.status"
)
