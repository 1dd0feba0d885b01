package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/claims-service/internal/repository"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

const systemUser = "system"

// requireID rejects identifiers that are not UUIDs.
func requireID(field, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return apperrors.NewInvalidReference(field, value)
	}
	return nil
}

func requireOptionalID(field string, value *string) error {
	if value == nil {
		return nil
	}
	return requireID(field, *value)
}

// mapRepoError translates repository sentinels into domain errors.
func mapRepoError(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConstraintViolation(resource+" already exists", details)
	case errors.Is(err, repository.ErrStale):
		return apperrors.NewConstraintViolation(resource+" was modified concurrently", details)
	default:
		return apperrors.NewInternalError(err)
	}
}

func actorOrSystem(user string) string {
	if u := strings.TrimSpace(user); u != "" {
		return u
	}
	return systemUser
}

func strPtr(v string) *string {
	return &v
}

func derefOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

// metadata builds an audit metadata bag, skipping absent optional values.
type metadata map[string]any

func (m metadata) set(key string, value any) metadata {
	m[key] = value
	return m
}

func (m metadata) setOptional(key string, value *string) metadata {
	if value != nil {
		m[key] = *value
	}
	return m
}

func (m metadata) setNonEmpty(key, value string) metadata {
	if value != "" {
		m[key] = value
	}
	return m
}
