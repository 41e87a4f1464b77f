package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type rqIDKey struct{}

// NewRequestID returns a fresh id for an inbound request.
func NewRequestID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, rqID string) context.Context {
	return context.WithValue(ctx, rqIDKey{}, rqID)
}

func RequestIDFromCtx(ctx context.Context) string {
	rqID, ok := ctx.Value(rqIDKey{}).(string)
	if !ok {
		return ""
	}
	return rqID
}

// FromCtx tags logger with the request id carried by ctx, if any.
func FromCtx(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if rqID := RequestIDFromCtx(ctx); rqID != "" {
		return logger.With(zap.String("rqID", rqID))
	}
	return logger
}
