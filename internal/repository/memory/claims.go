package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/repository"
)

type claimRepository struct {
	store *Store
}

func (r *claimRepository) Create(_ context.Context, claim *domain.Claim) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	claim.ID = newID()
	claim.CreatedAt = s.tick()
	claim.UpdatedAt = claim.CreatedAt
	s.state.claims[claim.ID] = cloneClaim(*claim)
	return nil
}

func (r *claimRepository) Update(_ context.Context, claim *domain.Claim, expected domain.ClaimStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.state.claims[claim.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != expected {
		return repository.ErrStale
	}
	claim.CreatedAt = existing.CreatedAt
	claim.UpdatedAt = s.tick()
	s.state.claims[claim.ID] = cloneClaim(*claim)
	return nil
}

func (r *claimRepository) UpdateStatus(_ context.Context, id string, expected, next domain.ClaimStatus) (*domain.Claim, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.state.claims[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if claim.Status != expected {
		return nil, repository.ErrStale
	}
	claim.Status = next
	claim.UpdatedAt = s.tick()
	s.state.claims[id] = claim
	out := cloneClaim(claim)
	return &out, nil
}

func (r *claimRepository) GetByID(_ context.Context, id string) (*domain.Claim, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, ok := s.state.claims[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneClaim(claim)
	return &out, nil
}

func (r *claimRepository) List(_ context.Context, filter repository.ClaimFilter) ([]domain.Claim, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make(map[domain.ClaimStatus]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses[st] = true
	}

	var result []domain.Claim
	for _, claim := range s.state.claims {
		if filter.ClientID != nil && claim.ClientID != *filter.ClientID {
			continue
		}
		if filter.ProjectID != nil && (claim.ProjectID == nil || *claim.ProjectID != *filter.ProjectID) {
			continue
		}
		if len(statuses) > 0 && !statuses[claim.Status] {
			continue
		}
		result = append(result, cloneClaim(claim))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Delete removes the claim with its assignments, comments and attachments.
// Audit events are kept.
func (r *claimRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.claims[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.state.claims, id)

	assignments := s.state.assignments[:0]
	for _, a := range s.state.assignments {
		if a.ClaimID != id {
			assignments = append(assignments, a)
		}
	}
	s.state.assignments = assignments

	comments := s.state.comments[:0]
	for _, c := range s.state.comments {
		if c.ClaimID != id {
			comments = append(comments, c)
		}
	}
	s.state.comments = comments

	attachments := s.state.attachments[:0]
	for _, a := range s.state.attachments {
		if a.ClaimID != id {
			attachments = append(attachments, a)
		}
	}
	s.state.attachments = attachments
	return nil
}

type clientRepository struct {
	store *Store
}

func (r *clientRepository) CreateClient(_ context.Context, client *domain.Client) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	client.ID = newID()
	client.CreatedAt = s.tick()
	client.UpdatedAt = client.CreatedAt
	s.state.clients[client.ID] = *client
	return nil
}

func (r *clientRepository) GetClient(_ context.Context, id string) (*domain.Client, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.state.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &client, nil
}

func (r *clientRepository) CreateProject(_ context.Context, project *domain.Project) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.clients[project.ClientID]; !ok {
		return repository.ErrNotFound
	}
	project.ID = newID()
	project.CreatedAt = s.tick()
	project.UpdatedAt = project.CreatedAt
	s.state.projects[project.ID] = *project
	return nil
}

func (r *clientRepository) GetProject(_ context.Context, id string) (*domain.Project, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.state.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &project, nil
}
