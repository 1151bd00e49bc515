// Package snsctx carries per-call flags for bus transports through a context.
package snsctx

import (
	"context"
	"encoding/hex"
	"log/slog"
)

type ctxIndex int

const ctxIndexVerbose ctxIndex = iota

func IsVerbose(ctx context.Context) bool {
	val, ok := ctx.Value(ctxIndexVerbose).(bool)
	return ok && val
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// DumpFrame logs a bus frame at debug level when ctx is verbose.
func DumpFrame(ctx context.Context, msg string, address byte, data []byte, attrs ...any) {
	if !IsVerbose(ctx) {
		return
	}
	args := append([]any{"addr", address, "data", hex.EncodeToString(data)}, attrs...)
	slog.DebugContext(ctx, msg, args...)
}
