package memory

import (
	"context"
	"strings"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/repository"
)

type auditEventRepository struct {
	store *Store
}

func (r *auditEventRepository) Create(_ context.Context, event *domain.AuditEvent) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = newID()
	event.CreatedAt = s.tick()
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	s.state.events = append(s.state.events, cloneEvent(*event))
	return nil
}

func (r *auditEventRepository) ListByClaim(_ context.Context, claimID string) ([]domain.AuditEvent, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.AuditEvent
	for _, e := range s.state.events {
		if e.ClaimID == claimID {
			result = append(result, cloneEvent(e))
		}
	}
	return result, nil
}

func (r *auditEventRepository) Search(_ context.Context, filter repository.AuditEventFilter) ([]domain.AuditEvent, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	user := ""
	if filter.User != nil {
		user = strings.ToLower(strings.TrimSpace(*filter.User))
	}

	var result []domain.AuditEvent
	for i := len(s.state.events) - 1; i >= 0 && len(result) < limit; i-- {
		e := s.state.events[i]
		if filter.ClaimID != nil && e.ClaimID != *filter.ClaimID {
			continue
		}
		if filter.ActionType != nil && e.ActionType != *filter.ActionType {
			continue
		}
		if user != "" && !strings.Contains(strings.ToLower(e.User), user) {
			continue
		}
		if filter.AreaID != nil && (e.AreaID == nil || *e.AreaID != *filter.AreaID) {
			continue
		}
		if filter.CreatedFrom != nil && e.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && e.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		result = append(result, cloneEvent(e))
	}
	return result, nil
}

type commentRepository struct {
	store *Store
}

func (r *commentRepository) Create(_ context.Context, comment *domain.Comment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.claims[comment.ClaimID]; !ok {
		return repository.ErrNotFound
	}
	comment.ID = newID()
	comment.CreatedAt = s.tick()
	s.state.comments = append(s.state.comments, *comment)
	return nil
}

func (r *commentRepository) ListByClaim(_ context.Context, claimID string) ([]domain.Comment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Comment
	for _, c := range s.state.comments {
		if c.ClaimID == claimID {
			result = append(result, c)
		}
	}
	return result, nil
}

type attachmentRepository struct {
	store *Store
}

func (r *attachmentRepository) Create(_ context.Context, attachment *domain.Attachment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.claims[attachment.ClaimID]; !ok {
		return repository.ErrNotFound
	}
	attachment.ID = newID()
	attachment.CreatedAt = s.tick()
	s.state.attachments = append(s.state.attachments, *attachment)
	return nil
}

func (r *attachmentRepository) ListByClaim(_ context.Context, claimID string) ([]domain.Attachment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Attachment
	for _, a := range s.state.attachments {
		if a.ClaimID == claimID {
			result = append(result, a)
		}
	}
	return result, nil
}
