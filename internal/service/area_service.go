package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/repository"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

// AreaService manages routing targets and reports on what is routed to them.
type AreaService struct {
	areas       repository.AreaRepository
	assignments repository.AssignmentRepository
	claims      repository.ClaimRepository
	logger      *zap.Logger
}

// AreaDependencies bundles collaborators for the area service.
type AreaDependencies struct {
	AreaRepo       repository.AreaRepository
	AssignmentRepo repository.AssignmentRepository
	ClaimRepo      repository.ClaimRepository
	Logger         *zap.Logger
}

func NewAreaService(deps AreaDependencies) *AreaService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AreaService{
		areas:       deps.AreaRepo,
		assignments: deps.AssignmentRepo,
		claims:      deps.ClaimRepo,
		logger:      logger,
	}
}

type CreateAreaInput struct {
	Name        string
	Description string
}

type CreateSubAreaInput struct {
	AreaID      string
	Name        string
	Description string
}

// AreaDetail is an area with its sub-areas.
type AreaDetail struct {
	domain.Area
	SubAreas []domain.SubArea
}

// AreaClaim pairs a current assignment with the claim it routes.
type AreaClaim struct {
	Assignment domain.AreaAssignment
	Claim      domain.Claim
}

// SubAreaCount counts current assignments to one sub-area.
type SubAreaCount struct {
	SubArea NamedRef
	Count   int
}

// AreaStat summarizes the claims currently routed to an area.
type AreaStat struct {
	Area             NamedRef
	TotalAssignments int
	StatusCounts     map[domain.ClaimStatus]int
	SubAreaCounts    []SubAreaCount
}

func (s *AreaService) CreateArea(ctx context.Context, input CreateAreaInput) (*domain.Area, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	area := &domain.Area{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if err := s.areas.Create(ctx, area); err != nil {
		return nil, mapRepoError(err, "area", map[string]any{"name": name})
	}
	s.logger.Info("area created", zap.String("area_id", area.ID), zap.String("name", area.Name))
	return area, nil
}

// ListAreas returns active areas ordered by name.
func (s *AreaService) ListAreas(ctx context.Context) ([]domain.Area, error) {
	areas, err := s.areas.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if areas == nil {
		areas = []domain.Area{}
	}
	return areas, nil
}

func (s *AreaService) GetArea(ctx context.Context, areaID string) (*AreaDetail, error) {
	area, err := s.area(ctx, areaID)
	if err != nil {
		return nil, err
	}
	subAreas, err := s.areas.ListSubAreas(ctx, area.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if subAreas == nil {
		subAreas = []domain.SubArea{}
	}
	return &AreaDetail{Area: *area, SubAreas: subAreas}, nil
}

func (s *AreaService) CreateSubArea(ctx context.Context, input CreateSubAreaInput) (*domain.SubArea, error) {
	area, err := s.area(ctx, input.AreaID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	subArea := &domain.SubArea{
		AreaID:      area.ID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if err := s.areas.CreateSubArea(ctx, subArea); err != nil {
		return nil, mapRepoError(err, "sub-area", map[string]any{"areaId": area.ID, "name": name})
	}
	s.logger.Info("sub-area created",
		zap.String("area_id", area.ID),
		zap.String("sub_area_id", subArea.ID),
		zap.String("name", subArea.Name))
	return subArea, nil
}

func (s *AreaService) ListSubAreas(ctx context.Context, areaID string) ([]domain.SubArea, error) {
	detail, err := s.GetArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	return detail.SubAreas, nil
}

// ClaimsByArea lists claims currently routed to the area, newest assignment
// first. Without includeSubAreas, claims routed to a sub-area are left out.
func (s *AreaService) ClaimsByArea(ctx context.Context, areaID string, includeSubAreas bool) ([]AreaClaim, error) {
	area, err := s.area(ctx, areaID)
	if err != nil {
		return nil, err
	}
	current, err := s.assignments.ListCurrentByArea(ctx, area.ID, includeSubAreas)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	result := make([]AreaClaim, 0, len(current))
	for _, a := range current {
		claim, err := s.claims.GetByID(ctx, a.ClaimID)
		if err != nil {
			return nil, mapRepoError(err, "claim", map[string]any{"claimId": a.ClaimID})
		}
		result = append(result, AreaClaim{Assignment: a, Claim: *claim})
	}
	return result, nil
}

// AreaStats reports current assignment counts for every active area.
func (s *AreaService) AreaStats(ctx context.Context) ([]AreaStat, error) {
	areas, err := s.ListAreas(ctx)
	if err != nil {
		return nil, err
	}
	stats := make([]AreaStat, 0, len(areas))
	for _, area := range areas {
		stat, err := s.areaStat(ctx, area)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (s *AreaService) areaStat(ctx context.Context, area domain.Area) (AreaStat, error) {
	stat := AreaStat{
		Area:         NamedRef{ID: area.ID, Name: area.Name},
		StatusCounts: map[domain.ClaimStatus]int{},
	}
	claims, err := s.ClaimsByArea(ctx, area.ID, true)
	if err != nil {
		return stat, err
	}
	subAreas, err := s.areas.ListSubAreas(ctx, area.ID)
	if err != nil {
		return stat, apperrors.NewInternalError(err)
	}

	bySubArea := map[string]int{}
	for _, c := range claims {
		stat.TotalAssignments++
		stat.StatusCounts[c.Claim.Status]++
		if c.Assignment.SubAreaID != nil {
			bySubArea[*c.Assignment.SubAreaID]++
		}
	}
	stat.SubAreaCounts = make([]SubAreaCount, 0, len(subAreas))
	for _, sub := range subAreas {
		stat.SubAreaCounts = append(stat.SubAreaCounts, SubAreaCount{
			SubArea: NamedRef{ID: sub.ID, Name: sub.Name},
			Count:   bySubArea[sub.ID],
		})
	}
	sort.SliceStable(stat.SubAreaCounts, func(i, j int) bool {
		return stat.SubAreaCounts[i].Count > stat.SubAreaCounts[j].Count
	})
	return stat, nil
}

func (s *AreaService) area(ctx context.Context, areaID string) (*domain.Area, error) {
	if err := requireID("areaId", areaID); err != nil {
		return nil, err
	}
	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return nil, mapRepoError(err, "area", map[string]any{"areaId": areaID})
	}
	return area, nil
}

// RepositoryAreaNames resolves display names straight from the area repository.
type RepositoryAreaNames struct {
	areas repository.AreaRepository
}

func NewRepositoryAreaNames(areas repository.AreaRepository) *RepositoryAreaNames {
	return &RepositoryAreaNames{areas: areas}
}

func (r *RepositoryAreaNames) AreaName(ctx context.Context, id string) (string, error) {
	area, err := r.areas.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return area.Name, nil
}

func (r *RepositoryAreaNames) SubAreaName(ctx context.Context, id string) (string, error) {
	sub, err := r.areas.GetSubArea(ctx, id)
	if err != nil {
		return "", err
	}
	return sub.Name, nil
}
