package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claims-service/internal/api/dto"
	"github.com/spec-kit/claims-service/internal/auth"
	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/service"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

// AreasHandler serves area management and claim routing endpoints.
type AreasHandler struct {
	areas       *service.AreaService
	assignments *service.AssignmentService
}

// NewAreasHandler constructs handler.
func NewAreasHandler(areas *service.AreaService, assignments *service.AssignmentService) *AreasHandler {
	return &AreasHandler{areas: areas, assignments: assignments}
}

// CreateArea POST /areas.
func (h *AreasHandler) CreateArea(c *fiber.Ctx) error {
	var req dto.CreateAreaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	area, err := h.areas.CreateArea(c.UserContext(), service.CreateAreaInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": areaResponse(area, nil)})
}

// ListAreas GET /areas.
func (h *AreasHandler) ListAreas(c *fiber.Ctx) error {
	areas, err := h.areas.ListAreas(c.UserContext())
	if err != nil {
		return err
	}
	withSubAreas := c.QueryBool("include_sub_areas", false)
	items := make([]dto.AreaResponse, 0, len(areas))
	for i := range areas {
		if !withSubAreas {
			items = append(items, areaResponse(&areas[i], nil))
			continue
		}
		subAreas, err := h.areas.ListSubAreas(c.UserContext(), areas[i].ID)
		if err != nil {
			return err
		}
		items = append(items, areaResponse(&areas[i], subAreas))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetArea GET /areas/:id.
func (h *AreasHandler) GetArea(c *fiber.Ctx) error {
	detail, err := h.areas.GetArea(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": areaResponse(&detail.Area, detail.SubAreas)})
}

// CreateSubArea POST /areas/subareas.
func (h *AreasHandler) CreateSubArea(c *fiber.Ctx) error {
	var req dto.CreateSubAreaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	subArea, err := h.areas.CreateSubArea(c.UserContext(), service.CreateSubAreaInput{
		AreaID:      req.AreaID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": subAreaResponse(subArea)})
}

// ListSubAreas GET /areas/:id/subareas.
func (h *AreasHandler) ListSubAreas(c *fiber.Ctx) error {
	subAreas, err := h.areas.ListSubAreas(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.SubAreaResponse, 0, len(subAreas))
	for i := range subAreas {
		items = append(items, subAreaResponse(&subAreas[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ClaimsByArea GET /areas/:id/claims.
func (h *AreasHandler) ClaimsByArea(c *fiber.Ctx) error {
	claims, err := h.areas.ClaimsByArea(c.UserContext(), c.Params("id"), c.QueryBool("include_sub_areas", false))
	if err != nil {
		return err
	}
	items := make([]dto.AreaClaimResponse, 0, len(claims))
	for i := range claims {
		items = append(items, dto.AreaClaimResponse{
			Claim:      claimResponse(&claims[i].Claim),
			SubAreaID:  claims[i].Assignment.SubAreaID,
			AssignedBy: claims[i].Assignment.AssignedBy,
			AssignedAt: claims[i].Assignment.AssignedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats GET /areas/stats.
func (h *AreasHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.areas.AreaStats(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AreaStatResponse, 0, len(stats))
	for _, s := range stats {
		subCounts := make([]dto.SubAreaCountResponse, 0, len(s.SubAreaCounts))
		for _, sc := range s.SubAreaCounts {
			subCounts = append(subCounts, dto.SubAreaCountResponse{SubArea: namedRef(sc.SubArea), Count: sc.Count})
		}
		items = append(items, dto.AreaStatResponse{
			Area:             namedRef(s.Area),
			TotalAssignments: s.TotalAssignments,
			StatusCounts:     s.StatusCounts,
			SubAreaCounts:    subCounts,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign POST /areas/assign.
func (h *AreasHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.assignments.AssignToArea(c.UserContext(), service.AssignInput{
		ClaimID:    req.ClaimID,
		AreaID:     req.AreaID,
		SubAreaID:  req.SubAreaID,
		AssignedBy: auth.ActorFromContext(c),
		Notes:      req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": assignmentResponse(view)})
}

// Reassign POST /areas/reassign.
func (h *AreasHandler) Reassign(c *fiber.Ctx) error {
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.assignments.ReassignWithinArea(c.UserContext(), service.ReassignInput{
		ClaimID:    req.ClaimID,
		SubAreaID:  req.SubAreaID,
		AssignedBy: auth.ActorFromContext(c),
		Notes:      req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": assignmentResponse(view)})
}

// Unassign POST /areas/unassign.
func (h *AreasHandler) Unassign(c *fiber.Ctx) error {
	var req dto.UnassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.assignments.Unassign(c.UserContext(), req.ClaimID, auth.ActorFromContext(c), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assignmentResponse(&result.Previous)})
}

// CurrentAssignment GET /areas/claims/:claimId/current. Data is null when
// the claim is not routed anywhere.
func (h *AreasHandler) CurrentAssignment(c *fiber.Ctx) error {
	view, err := h.assignments.CurrentAssignment(c.UserContext(), c.Params("claimId"))
	if err != nil {
		return err
	}
	if view == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": assignmentResponse(view)})
}

// AssignmentHistory GET /areas/claims/:claimId/history.
func (h *AreasHandler) AssignmentHistory(c *fiber.Ctx) error {
	history, err := h.assignments.AssignmentHistory(c.UserContext(), c.Params("claimId"))
	if err != nil {
		return err
	}
	items := make([]dto.AssignmentResponse, 0, len(history))
	for i := range history {
		items = append(items, assignmentResponse(&history[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func areaResponse(area *domain.Area, subAreas []domain.SubArea) dto.AreaResponse {
	resp := dto.AreaResponse{
		ID:          area.ID,
		Name:        area.Name,
		Description: area.Description,
		IsActive:    area.IsActive,
		CreatedAt:   area.CreatedAt,
		UpdatedAt:   area.UpdatedAt,
	}
	if subAreas != nil {
		resp.SubAreas = make([]dto.SubAreaResponse, 0, len(subAreas))
		for i := range subAreas {
			resp.SubAreas = append(resp.SubAreas, subAreaResponse(&subAreas[i]))
		}
	}
	return resp
}

func subAreaResponse(sub *domain.SubArea) dto.SubAreaResponse {
	return dto.SubAreaResponse{
		ID:          sub.ID,
		AreaID:      sub.AreaID,
		Name:        sub.Name,
		Description: sub.Description,
		IsActive:    sub.IsActive,
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
	}
}

func assignmentResponse(view *service.AssignmentView) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:         view.ID,
		ClaimID:    view.ClaimID,
		Area:       namedRef(view.Area),
		SubArea:    namedRefPtr(view.SubArea),
		AssignedBy: view.AssignedBy,
		Notes:      view.Notes,
		AssignedAt: view.AssignedAt,
		IsCurrent:  view.IsCurrent,
	}
}

func namedRef(ref service.NamedRef) dto.NamedRef {
	return dto.NamedRef{ID: ref.ID, Name: ref.Name}
}

func namedRefPtr(ref *service.NamedRef) *dto.NamedRef {
	if ref == nil {
		return nil
	}
	out := namedRef(*ref)
	return &out
}
