package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/repository"
)

type areaRepository struct {
	store *Store
}

func (r *areaRepository) Create(_ context.Context, area *domain.Area) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.areas {
		if strings.EqualFold(existing.Name, area.Name) {
			return fmt.Errorf("%w: areas_name_key", repository.ErrDuplicate)
		}
	}
	area.ID = newID()
	area.CreatedAt = s.tick()
	area.UpdatedAt = area.CreatedAt
	s.state.areas[area.ID] = *area
	return nil
}

func (r *areaRepository) GetByID(_ context.Context, id string) (*domain.Area, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	area, ok := s.state.areas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &area, nil
}

func (r *areaRepository) ListActive(_ context.Context) ([]domain.Area, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Area
	for _, area := range s.state.areas {
		if area.IsActive {
			result = append(result, area)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *areaRepository) CreateSubArea(_ context.Context, subArea *domain.SubArea) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.areas[subArea.AreaID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range s.state.subAreas {
		if existing.AreaID == subArea.AreaID && strings.EqualFold(existing.Name, subArea.Name) {
			return fmt.Errorf("%w: sub_areas_area_id_name_key", repository.ErrDuplicate)
		}
	}
	subArea.ID = newID()
	subArea.CreatedAt = s.tick()
	subArea.UpdatedAt = subArea.CreatedAt
	s.state.subAreas[subArea.ID] = *subArea
	return nil
}

func (r *areaRepository) GetSubArea(_ context.Context, id string) (*domain.SubArea, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	subArea, ok := s.state.subAreas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &subArea, nil
}

func (r *areaRepository) ListSubAreas(_ context.Context, areaID string) ([]domain.SubArea, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SubArea
	for _, subArea := range s.state.subAreas {
		if subArea.AreaID == areaID && subArea.IsActive {
			result = append(result, subArea)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
