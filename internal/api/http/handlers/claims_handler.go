package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claims-service/internal/api/dto"
	"github.com/spec-kit/claims-service/internal/auth"
	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/service"
	"github.com/spec-kit/claims-service/internal/status"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

// ClaimsHandler serves claim lifecycle endpoints.
type ClaimsHandler struct {
	service *service.ClaimService
}

// NewClaimsHandler constructs handler.
func NewClaimsHandler(claimService *service.ClaimService) *ClaimsHandler {
	return &ClaimsHandler{service: claimService}
}

// Create POST /claims.
func (h *ClaimsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	claim, err := h.service.Create(c.UserContext(), service.CreateClaimInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
		Severity:    req.Severity,
		ClientID:    req.ClientID,
		ProjectID:   req.ProjectID,
		Attachments: req.Attachments,
	}, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": claimResponse(claim)})
}

// List GET /claims.
func (h *ClaimsHandler) List(c *fiber.Ctx) error {
	input := service.ListClaimsInput{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			input.Statuses = append(input.Statuses, domain.ClaimStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	offset, limit, err := pageWindow(c.Query("page"), c.Query("page_size"))
	if err != nil {
		return err
	}
	input.Offset = offset
	input.Limit = limit

	claims, err := h.service.List(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimResponses(claims)})
}

// ListByClient GET /claims/client/:clientId.
func (h *ClaimsHandler) ListByClient(c *fiber.Ctx) error {
	claims, err := h.service.ListByClient(c.UserContext(), c.Params("clientId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimResponses(claims)})
}

// ListByProject GET /claims/project/:projectId.
func (h *ClaimsHandler) ListByProject(c *fiber.Ctx) error {
	claims, err := h.service.ListByProject(c.UserContext(), c.Params("projectId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimResponses(claims)})
}

// Get GET /claims/:id.
func (h *ClaimsHandler) Get(c *fiber.Ctx) error {
	claim, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimResponse(claim)})
}

// Update PATCH /claims/:id.
func (h *ClaimsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	claim, err := h.service.Update(c.UserContext(), c.Params("id"), service.ClaimPatch{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
		Severity:    req.Severity,
		Status:      req.Status,
	}, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimResponse(claim)})
}

// Remove DELETE /claims/:id.
func (h *ClaimsHandler) Remove(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext(), c.Params("id"), auth.ActorFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ChangeStatus POST /claims/:id/status.
func (h *ClaimsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", map[string]any{"field": "status"})
	}
	claim, err := h.service.ChangeStatus(c.UserContext(), c.Params("id"), service.ChangeStatusInput{
		NewStatus:         req.Status,
		Reason:            req.Reason,
		ResolutionDetails: req.ResolutionDetails,
		ClosureNotes:      req.ClosureNotes,
		InternalNotes:     req.InternalNotes,
	}, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimResponse(claim)})
}

// Resolve POST /claims/:id/resolve.
func (h *ClaimsHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	claim, err := h.service.Resolve(c.UserContext(), c.Params("id"), req.ResolutionDetails, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimResponse(claim)})
}

// Close POST /claims/:id/close.
func (h *ClaimsHandler) Close(c *fiber.Ctx) error {
	var req dto.CloseClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	claim, err := h.service.Close(c.UserContext(), c.Params("id"), req.ClosureNotes, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimResponse(claim)})
}

// Reopen POST /claims/:id/reopen.
func (h *ClaimsHandler) Reopen(c *fiber.Ctx) error {
	var req dto.ReopenClaimRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	claim, err := h.service.Reopen(c.UserContext(), c.Params("id"), req.Status, req.Reason, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimResponse(claim)})
}

// AddComment POST /claims/:id/comment.
func (h *ClaimsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.UserContext(), c.Params("id"), req.Comment, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CommentResponse{
		ID:        comment.ID,
		ClaimID:   comment.ClaimID,
		Author:    comment.Author,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}})
}

// ListComments GET /claims/:id/comments.
func (h *ClaimsHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.service.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, dto.CommentResponse{
			ID:        comment.ID,
			ClaimID:   comment.ClaimID,
			Author:    comment.Author,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddAttachment POST /claims/:id/attachments.
func (h *ClaimsHandler) AddAttachment(c *fiber.Ctx) error {
	var req dto.AttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attachment, err := h.service.AddAttachment(c.UserContext(), c.Params("id"), req.FileName, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// ListAttachments GET /claims/:id/attachments.
func (h *ClaimsHandler) ListAttachments(c *fiber.Ctx) error {
	attachments, err := h.service.ListAttachments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, attachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Transitions GET /claims/:id/transitions.
func (h *ClaimsHandler) Transitions(c *fiber.Ctx) error {
	options, err := h.service.AvailableTransitions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.TransitionsResponse{
		Current: dto.StatusInfoResponse{
			Value:       options.Current.Value,
			Label:       options.Current.Label,
			Description: options.Current.Description,
		},
		Transitions: make([]dto.TransitionResponse, 0, len(options.Transitions)),
	}
	for _, t := range options.Transitions {
		required := t.RequiredFields
		if required == nil {
			required = []string{}
		}
		resp.Transitions = append(resp.Transitions, dto.TransitionResponse{
			Status:         t.Status,
			Label:          t.Label,
			Description:    t.Description,
			RequiredFields: required,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ValidateAction GET /claims/:id/validate-action/:action.
func (h *ClaimsHandler) ValidateAction(c *fiber.Ctx) error {
	action := c.Params("action")
	check, err := h.service.ValidateAction(c.UserContext(), c.Params("id"), action)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ActionCheckResponse{
		Action:  action,
		Allowed: check.Allowed,
		Message: check.Message,
	}})
}

// Statuses GET /statuses.
func (h *ClaimsHandler) Statuses(c *fiber.Ctx) error {
	infos := status.Available()
	items := make([]dto.StatusInfoResponse, 0, len(infos))
	for _, info := range infos {
		items = append(items, dto.StatusInfoResponse{
			Value:       info.Value,
			Label:       info.Label,
			Description: info.Description,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxOffset       = math.MaxInt32
)

// pageWindow turns page/page_size query values into an offset and limit.
// page_size is clamped to maxPageSize; a page past maxOffset is rejected.
func pageWindow(pageStr, sizeStr string) (int, int, error) {
	size := parseInt(sizeStr, defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}
	page := 1
	if pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 || parsed-1 > maxOffset/size {
			return 0, 0, apperrors.NewValidationError("page out of range", map[string]any{"page": pageStr})
		}
		page = parsed
	}
	return (page - 1) * size, size, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func claimResponse(claim *domain.Claim) dto.ClaimResponse {
	return dto.ClaimResponse{
		ID:          claim.ID,
		Title:       claim.Title,
		Description: claim.Description,
		Type:        claim.Type,
		Priority:    claim.Priority,
		Severity:    claim.Severity,
		Status:      claim.Status,
		StatusLabel: status.Label(claim.Status),
		ClientID:    claim.ClientID,
		ProjectID:   claim.ProjectID,
		CreatedAt:   claim.CreatedAt,
		UpdatedAt:   claim.UpdatedAt,
	}
}

func claimResponses(claims []domain.Claim) []dto.ClaimResponse {
	items := make([]dto.ClaimResponse, 0, len(claims))
	for i := range claims {
		items = append(items, claimResponse(&claims[i]))
	}
	return items
}

func attachmentResponse(att *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:        att.ID,
		ClaimID:   att.ClaimID,
		FileName:  att.FileName,
		Path:      att.Path,
		MimeType:  att.MimeType,
		SizeBytes: att.SizeBytes,
		CreatedAt: att.CreatedAt,
	}
}
