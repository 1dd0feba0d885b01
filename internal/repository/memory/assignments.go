package memory

import (
	"context"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/repository"
)

type assignmentRepository struct {
	store *Store
}

func (r *assignmentRepository) GetCurrent(_ context.Context, claimID string) (*domain.AreaAssignment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.state.assignments {
		if a.ClaimID == claimID && a.IsCurrent {
			out := cloneAssignment(a)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *assignmentRepository) ReplaceCurrent(_ context.Context, assignment *domain.AreaAssignment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.claims[assignment.ClaimID]; !ok {
		return repository.ErrNotFound
	}
	s.clearCurrentLocked(assignment.ClaimID)

	assignment.ID = newID()
	assignment.AssignedAt = s.tick()
	assignment.IsCurrent = true
	s.state.assignments = append(s.state.assignments, cloneAssignment(*assignment))
	return nil
}

func (r *assignmentRepository) ClearCurrent(_ context.Context, claimID string) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.claims[claimID]; !ok {
		return 0, repository.ErrNotFound
	}
	return s.clearCurrentLocked(claimID), nil
}

func (s *Store) clearCurrentLocked(claimID string) int64 {
	var affected int64
	for i := range s.state.assignments {
		if s.state.assignments[i].ClaimID == claimID && s.state.assignments[i].IsCurrent {
			s.state.assignments[i].IsCurrent = false
			affected++
		}
	}
	return affected
}

func (r *assignmentRepository) ListByClaim(_ context.Context, claimID string) ([]domain.AreaAssignment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.AreaAssignment
	for i := len(s.state.assignments) - 1; i >= 0; i-- {
		a := s.state.assignments[i]
		if a.ClaimID == claimID {
			result = append(result, cloneAssignment(a))
		}
	}
	return result, nil
}

func (r *assignmentRepository) ListCurrentByArea(_ context.Context, areaID string, includeSubAreas bool) ([]domain.AreaAssignment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.AreaAssignment
	for i := len(s.state.assignments) - 1; i >= 0; i-- {
		a := s.state.assignments[i]
		if a.AreaID != areaID || !a.IsCurrent {
			continue
		}
		if !includeSubAreas && a.SubAreaID != nil {
			continue
		}
		result = append(result, cloneAssignment(a))
	}
	return result, nil
}
