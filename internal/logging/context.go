package logging

import (
	"context"
	"log/slog"

	"standin/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for transcode job identifiers.
	FieldJobID = "job_id"
	// FieldOperation is the standardized structured logging key for the CLI operation in progress.
	FieldOperation = "operation"
	// FieldSource is the standardized structured logging key for source media paths.
	FieldSource = "source"
	// FieldDest is the standardized structured logging key for output file paths.
	FieldDest = "dest"
	// FieldHash is the standardized structured logging key for proxy content hashes.
	FieldHash = "hash"
	// FieldKind is the standardized structured logging key for job or source kinds.
	FieldKind = "kind"
	// FieldProject is the standardized structured logging key for project document paths.
	FieldProject = "project"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
