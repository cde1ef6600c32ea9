package service

import (
	"errors"
	"fmt"

	"doctrack/internal/domain"
	"doctrack/internal/observability/metrics"
)

// storeErr passes domain errors through and classifies anything else as ErrUnavailable.
func storeErr(op string, err error) error {
	if err == nil || domain.IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
}

// resultLabel is the outcome label recorded for a workflow command.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrDuplicateSignature):
		return "duplicate_signature"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "unavailable"
	}
}

func recordCommand(kind domain.DocumentKind, cmd domain.Command, err error) {
	metrics.WorkflowCommandsTotal.WithLabelValues(string(kind), string(cmd), resultLabel(err)).Inc()
}
