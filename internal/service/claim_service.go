package service

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/observability"
	"github.com/spec-kit/claims-service/internal/repository"
	"github.com/spec-kit/claims-service/internal/status"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

const uploadsPrefix = "/uploads/claims/"

// ClaimService coordinates claim lifecycle workflows.
type ClaimService struct {
	claims      repository.ClaimRepository
	clients     repository.ClientRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	audit       auditWriter
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// ClaimDependencies bundles collaborators for the claim service.
type ClaimDependencies struct {
	ClaimRepo      repository.ClaimRepository
	ClientRepo     repository.ClientRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	Recorder       EventRecorder
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewClaimService constructs the service.
func NewClaimService(deps ClaimDependencies) *ClaimService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimService{
		claims:      deps.ClaimRepo,
		clients:     deps.ClientRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		audit:       newAuditWriter(deps.Recorder, deps.Logger, deps.Metrics),
		logger:      logger,
		metrics:     deps.Metrics,
	}
}

// CreateClaimInput describes claim intake.
type CreateClaimInput struct {
	Title       string
	Description string
	Type        domain.ClaimType
	Priority    domain.ClaimPriority
	Severity    domain.ClaimSeverity
	ClientID    string
	ProjectID   *string
	Attachments []string
}

// ListClaimsInput filters claim listings.
type ListClaimsInput struct {
	Statuses []domain.ClaimStatus
	Limit    int
	Offset   int
}

// ChangeStatusInput carries a requested transition and its supporting data.
type ChangeStatusInput struct {
	NewStatus         domain.ClaimStatus
	Reason            string
	ResolutionDetails string
	ClosureNotes      string
	InternalNotes     string
}

func (in ChangeStatusInput) field(name string) string {
	switch name {
	case status.FieldResolutionDetails:
		return in.ResolutionDetails
	case status.FieldClosureNotes:
		return in.ClosureNotes
	default:
		return ""
	}
}

// ClaimPatch lists the fields Update may change. Nil means unchanged.
type ClaimPatch struct {
	Title       *string
	Description *string
	Type        *domain.ClaimType
	Priority    *domain.ClaimPriority
	Severity    *domain.ClaimSeverity
	Status      *domain.ClaimStatus
}

func (p ClaimPatch) fields() []string {
	var names []string
	if p.Title != nil {
		names = append(names, "title")
	}
	if p.Description != nil {
		names = append(names, "description")
	}
	if p.Type != nil {
		names = append(names, "type")
	}
	if p.Priority != nil {
		names = append(names, "priority")
	}
	if p.Severity != nil {
		names = append(names, "severity")
	}
	if p.Status != nil {
		names = append(names, "status")
	}
	sort.Strings(names)
	return names
}

// ActionCheck answers whether an action is permitted right now.
type ActionCheck struct {
	Allowed bool
	Message string
}

// TransitionOption describes one reachable status.
type TransitionOption struct {
	Status         domain.ClaimStatus
	Label          string
	Description    string
	RequiredFields []string
}

// TransitionOptions lists where a claim can go from its current status.
type TransitionOptions struct {
	Current     status.Info
	Transitions []TransitionOption
}

// Create validates references and enums, stores the claim in ABIERTO and
// records CREATED.
func (s *ClaimService) Create(ctx context.Context, input CreateClaimInput, user string) (*domain.Claim, error) {
	user = actorOrSystem(user)
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if err := validateClassification(&input.Type, &input.Priority, &input.Severity); err != nil {
		return nil, err
	}
	if err := requireID("clientId", input.ClientID); err != nil {
		return nil, err
	}
	if _, err := s.clients.GetClient(ctx, input.ClientID); err != nil {
		return nil, mapRepoError(err, "client", map[string]any{"clientId": input.ClientID})
	}
	projectID := trimmedPtr(input.ProjectID)
	if projectID != nil {
		if err := requireID("projectId", *projectID); err != nil {
			return nil, err
		}
		project, err := s.clients.GetProject(ctx, *projectID)
		if err != nil {
			return nil, mapRepoError(err, "project", map[string]any{"projectId": *projectID})
		}
		if project.ClientID != input.ClientID {
			return nil, apperrors.NewConstraintViolation("project does not belong to client", map[string]any{
				"projectId": *projectID,
				"clientId":  input.ClientID,
			})
		}
	}
	fileNames := make([]string, 0, len(input.Attachments))
	for _, name := range input.Attachments {
		clean, err := cleanFileName(name)
		if err != nil {
			return nil, err
		}
		fileNames = append(fileNames, clean)
	}

	claim := &domain.Claim{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Type:        input.Type,
		Priority:    input.Priority,
		Severity:    input.Severity,
		Status:      domain.ClaimStatusOpen,
		ClientID:    input.ClientID,
		ProjectID:   projectID,
	}
	if err := s.claims.Create(ctx, claim); err != nil {
		return nil, mapRepoError(err, "claim", nil)
	}

	// The claim is committed at this point: a file that fails to store is
	// dropped and reported in the CREATED metadata, never as a failed intake.
	stored := make([]string, 0, len(fileNames))
	var failed []string
	for _, name := range fileNames {
		if _, err := s.storeAttachment(ctx, claim.ID, name); err != nil {
			s.logger.Error("intake attachment not stored",
				zap.String("claim_id", claim.ID),
				zap.String("file_name", name),
				zap.Error(err))
			s.metrics.RecordAttachmentFailure()
			failed = append(failed, name)
			continue
		}
		stored = append(stored, name)
	}

	meta := metadata{}.
		set("clientId", claim.ClientID).
		setOptional("projectId", claim.ProjectID).
		set("type", string(claim.Type)).
		set("priority", string(claim.Priority)).
		set("severity", string(claim.Severity))
	if len(stored) > 0 {
		meta.set("attachments", stored)
	}
	if len(failed) > 0 {
		meta.set("failedAttachments", failed)
	}
	s.audit.record(ctx, EventInput{
		ClaimID:    claim.ID,
		ActionType: domain.ActionCreated,
		User:       user,
		Details:    "Reclamo creado inicialmente",
		Metadata:   meta,
	})

	return claim, nil
}

// Get returns one claim.
func (s *ClaimService) Get(ctx context.Context, claimID string) (*domain.Claim, error) {
	if err := requireID("claimId", claimID); err != nil {
		return nil, err
	}
	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claimID})
	}
	return claim, nil
}

// List returns claims newest first.
func (s *ClaimService) List(ctx context.Context, input ListClaimsInput) ([]domain.Claim, error) {
	for _, st := range input.Statuses {
		if !st.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": st})
		}
	}
	return s.list(ctx, repository.ClaimFilter{Statuses: input.Statuses, Limit: input.Limit, Offset: input.Offset})
}

// ListByClient returns the claims of one client.
func (s *ClaimService) ListByClient(ctx context.Context, clientID string) ([]domain.Claim, error) {
	if err := requireID("clientId", clientID); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ClaimFilter{ClientID: &clientID})
}

// ListByProject returns the claims of one project.
func (s *ClaimService) ListByProject(ctx context.Context, projectID string) ([]domain.Claim, error) {
	if err := requireID("projectId", projectID); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ClaimFilter{ProjectID: &projectID})
}

func (s *ClaimService) list(ctx context.Context, filter repository.ClaimFilter) ([]domain.Claim, error) {
	claims, err := s.claims.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if claims == nil {
		claims = []domain.Claim{}
	}
	return claims, nil
}

// ChangeStatus moves a claim along one edge of the transition table and
// records exactly one STATUS_CHANGED event.
func (s *ClaimService) ChangeStatus(ctx context.Context, claimID string, input ChangeStatusInput, user string) (*domain.Claim, error) {
	user = actorOrSystem(user)
	if !input.NewStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": input.NewStatus})
	}
	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(claim.Status, input.NewStatus, input.field); err != nil {
		return nil, err
	}

	updated, err := s.claims.UpdateStatus(ctx, claim.ID, claim.Status, input.NewStatus)
	if err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claim.ID})
	}

	details := strings.TrimSpace(input.Reason)
	if details == "" {
		details = fmt.Sprintf("Estado cambiado a %s", input.NewStatus)
	}
	meta := metadata{}.
		setNonEmpty("reason", strings.TrimSpace(input.Reason)).
		setNonEmpty("internalNotes", strings.TrimSpace(input.InternalNotes)).
		setNonEmpty(status.FieldResolutionDetails, strings.TrimSpace(input.ResolutionDetails)).
		setNonEmpty(status.FieldClosureNotes, strings.TrimSpace(input.ClosureNotes))
	s.audit.record(ctx, EventInput{
		ClaimID:    claim.ID,
		ActionType: domain.ActionStatusChanged,
		User:       user,
		OldValue:   strPtr(string(claim.Status)),
		NewValue:   strPtr(string(input.NewStatus)),
		Details:    details,
		Metadata:   meta,
	})
	return updated, nil
}

// Resolve moves the claim to RESUELTO.
func (s *ClaimService) Resolve(ctx context.Context, claimID, resolutionDetails, user string) (*domain.Claim, error) {
	return s.ChangeStatus(ctx, claimID, ChangeStatusInput{
		NewStatus:         domain.ClaimStatusResolved,
		ResolutionDetails: resolutionDetails,
	}, user)
}

// Close moves the claim to CERRADO.
func (s *ClaimService) Close(ctx context.Context, claimID, closureNotes, user string) (*domain.Claim, error) {
	return s.ChangeStatus(ctx, claimID, ChangeStatusInput{
		NewStatus:    domain.ClaimStatusClosed,
		ClosureNotes: closureNotes,
	}, user)
}

// Reopen moves the claim back to ABIERTO, or EN_PROCESO when target says so.
func (s *ClaimService) Reopen(ctx context.Context, claimID string, target domain.ClaimStatus, reason, user string) (*domain.Claim, error) {
	if target == "" {
		target = domain.ClaimStatusOpen
	}
	if target != domain.ClaimStatusOpen && target != domain.ClaimStatusInProgress {
		return nil, apperrors.NewValidationError("reopen target must be ABIERTO or EN_PROCESO", map[string]any{"status": target})
	}
	return s.ChangeStatus(ctx, claimID, ChangeStatusInput{NewStatus: target, Reason: reason}, user)
}

// ValidateAction reports whether the claim's current status permits action.
func (s *ClaimService) ValidateAction(ctx context.Context, claimID, action string) (*ActionCheck, error) {
	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	parsed, ok := status.ParseAction(action)
	if ok && status.CanPerformAction(claim.Status, parsed) {
		return &ActionCheck{Allowed: true}, nil
	}
	return &ActionCheck{
		Allowed: false,
		Message: fmt.Sprintf("La acción %q no está permitida en el estado %q", action, claim.Status),
	}, nil
}

// AvailableTransitions lists the statuses reachable from the claim's status.
func (s *ClaimService) AvailableTransitions(ctx context.Context, claimID string) (*TransitionOptions, error) {
	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	out := &TransitionOptions{
		Current: status.Info{
			Value:       claim.Status,
			Label:       status.Label(claim.Status),
			Description: status.Describe(claim.Status),
		},
		Transitions: []TransitionOption{},
	}
	for _, next := range status.PossibleTransitions(claim.Status) {
		out.Transitions = append(out.Transitions, TransitionOption{
			Status:         next,
			Label:          status.Label(next),
			Description:    status.Describe(next),
			RequiredFields: status.RequiredFields(claim.Status, next),
		})
	}
	return out, nil
}

// Update applies a field patch. A status in the patch goes through the
// transition table; other fields need the edit permission. Each changed
// status, priority or severity yields its own event; otherwise one generic
// update event lists the patched fields.
func (s *ClaimService) Update(ctx context.Context, claimID string, patch ClaimPatch, user string) (*domain.Claim, error) {
	user = actorOrSystem(user)
	fields := patch.fields()
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperrors.NewValidationError("title must not be empty", map[string]any{"field": "title"})
	}
	if err := validateClassification(patch.Type, patch.Priority, patch.Severity); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *patch.Status})
	}

	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	previous := *claim

	editsFields := patch.Title != nil || patch.Description != nil || patch.Type != nil || patch.Priority != nil || patch.Severity != nil
	if editsFields && !status.CanPerformAction(claim.Status, status.ActionEdit) {
		return nil, apperrors.NewActionNotAllowed(string(status.ActionEdit), string(claim.Status))
	}
	statusChanges := patch.Status != nil && *patch.Status != claim.Status
	if statusChanges {
		if err := checkTransition(claim.Status, *patch.Status, func(string) string { return "" }); err != nil {
			return nil, err
		}
	}

	if patch.Title != nil {
		claim.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		claim.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Type != nil {
		claim.Type = *patch.Type
	}
	if patch.Priority != nil {
		claim.Priority = *patch.Priority
	}
	if patch.Severity != nil {
		claim.Severity = *patch.Severity
	}
	if statusChanges {
		claim.Status = *patch.Status
	}

	// Fields and status are written in one compare-and-set so a failed write
	// leaves neither applied.
	switch {
	case editsFields:
		if err := s.claims.Update(ctx, claim, previous.Status); err != nil {
			return nil, mapRepoError(err, "claim", map[string]any{"claimId": claim.ID})
		}
	case statusChanges:
		if claim, err = s.claims.UpdateStatus(ctx, claim.ID, previous.Status, *patch.Status); err != nil {
			return nil, mapRepoError(err, "claim", map[string]any{"claimId": previous.ID})
		}
	default:
		if claim, err = s.Get(ctx, claim.ID); err != nil {
			return nil, err
		}
	}

	recorded := 0
	if statusChanges {
		s.audit.record(ctx, EventInput{
			ClaimID:    claim.ID,
			ActionType: domain.ActionStatusChanged,
			User:       user,
			OldValue:   strPtr(string(previous.Status)),
			NewValue:   strPtr(string(*patch.Status)),
			Details:    fmt.Sprintf("Estado cambiado de %q a %q", previous.Status, *patch.Status),
		})
		recorded++
	}
	if patch.Priority != nil && *patch.Priority != previous.Priority {
		s.audit.record(ctx, EventInput{
			ClaimID:    claim.ID,
			ActionType: domain.ActionPriorityChanged,
			User:       user,
			OldValue:   strPtr(string(previous.Priority)),
			NewValue:   strPtr(string(*patch.Priority)),
			Details:    fmt.Sprintf("Prioridad cambiada de %q a %q", previous.Priority, *patch.Priority),
		})
		recorded++
	}
	if patch.Severity != nil && *patch.Severity != previous.Severity {
		s.audit.record(ctx, EventInput{
			ClaimID:    claim.ID,
			ActionType: domain.ActionSeverityChanged,
			User:       user,
			OldValue:   strPtr(string(previous.Severity)),
			NewValue:   strPtr(string(*patch.Severity)),
			Details:    fmt.Sprintf("Criticidad cambiada de %q a %q", previous.Severity, *patch.Severity),
		})
		recorded++
	}
	if recorded == 0 {
		s.audit.record(ctx, EventInput{
			ClaimID:    claim.ID,
			ActionType: domain.ActionCommented,
			User:       user,
			Details:    "Reclamo actualizado",
			Metadata:   metadata{}.set("updatedFields", fields),
		})
	}
	return claim, nil
}

// Remove records a closing event and then deletes the claim. The event is
// written first because recording requires the claim to exist; audit rows
// outlive the claim.
func (s *ClaimService) Remove(ctx context.Context, claimID, user string) error {
	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return err
	}
	s.audit.record(ctx, EventInput{
		ClaimID:    claim.ID,
		ActionType: domain.ActionClosed,
		User:       actorOrSystem(user),
		Details:    fmt.Sprintf("Reclamo eliminado: %s", claim.Title),
		Metadata: metadata{}.
			set("title", claim.Title).
			set("clientId", claim.ClientID).
			setOptional("projectId", claim.ProjectID),
	})
	if err := s.claims.Delete(ctx, claim.ID); err != nil {
		return mapRepoError(err, "claim", map[string]any{"claimId": claim.ID})
	}
	return nil
}

// AddComment stores a comment and records COMMENTED.
func (s *ClaimService) AddComment(ctx context.Context, claimID, body, user string) (*domain.Comment, error) {
	user = actorOrSystem(user)
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment is required", map[string]any{"field": "comment"})
	}
	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !status.CanPerformAction(claim.Status, status.ActionComment) {
		return nil, apperrors.NewActionNotAllowed(string(status.ActionComment), string(claim.Status))
	}

	comment := &domain.Comment{ClaimID: claim.ID, Author: user, Body: body}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claim.ID})
	}
	s.audit.record(ctx, EventInput{
		ClaimID:    claim.ID,
		ActionType: domain.ActionCommented,
		User:       user,
		Details:    body,
		Metadata:   metadata{}.set("commentLength", utf8.RuneCountInString(body)),
	})
	return comment, nil
}

// ListComments returns a claim's comments oldest first.
func (s *ClaimService) ListComments(ctx context.Context, claimID string) ([]domain.Comment, error) {
	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByClaim(ctx, claim.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, nil
}

// AddAttachment stores attachment metadata and records FILE_ATTACHED.
func (s *ClaimService) AddAttachment(ctx context.Context, claimID, fileName, user string) (*domain.Attachment, error) {
	user = actorOrSystem(user)
	name, err := cleanFileName(fileName)
	if err != nil {
		return nil, err
	}
	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !status.CanPerformAction(claim.Status, status.ActionAttachFiles) {
		return nil, apperrors.NewActionNotAllowed(string(status.ActionAttachFiles), string(claim.Status))
	}

	attachment, err := s.storeAttachment(ctx, claim.ID, name)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, EventInput{
		ClaimID:    claim.ID,
		ActionType: domain.ActionFileAttached,
		User:       user,
		Details:    fmt.Sprintf("Archivo adjuntado: %s", name),
		Metadata: metadata{}.
			set("filename", attachment.FileName).
			set("mimetype", attachment.MimeType).
			set("size", attachment.SizeBytes),
	})
	return attachment, nil
}

// ListAttachments returns a claim's attachments oldest first.
func (s *ClaimService) ListAttachments(ctx context.Context, claimID string) ([]domain.Attachment, error) {
	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByClaim(ctx, claim.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return attachments, nil
}

func (s *ClaimService) storeAttachment(ctx context.Context, claimID, name string) (*domain.Attachment, error) {
	attachment := &domain.Attachment{
		ClaimID:  claimID,
		FileName: name,
		Path:     uploadsPrefix + name,
		MimeType: mimeTypeFor(name),
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claimID})
	}
	return attachment, nil
}

// checkTransition applies the transition table and its required-field rule.
// value returns the supplied value for a required field name.
func checkTransition(from, to domain.ClaimStatus, value func(string) string) error {
	if !status.ValidateTransition(from, to) {
		allowed := status.PossibleTransitions(from)
		names := make([]string, len(allowed))
		for i, a := range allowed {
			names[i] = string(a)
		}
		return apperrors.NewInvalidTransition(string(from), string(to), names)
	}
	var missing []string
	for _, field := range status.RequiredFields(from, to) {
		if strings.TrimSpace(value(field)) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewMissingRequiredFields(string(from), string(to), missing)
	}
	return nil
}

func validateClassification(t *domain.ClaimType, p *domain.ClaimPriority, sv *domain.ClaimSeverity) error {
	if t != nil && !t.Valid() {
		return apperrors.NewValidationError("invalid type", map[string]any{"field": "type", "value": *t})
	}
	if p != nil && !p.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority", "value": *p})
	}
	if sv != nil && !sv.Valid() {
		return apperrors.NewValidationError("invalid severity", map[string]any{"field": "severity", "value": *sv})
	}
	return nil
}

func cleanFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", apperrors.NewValidationError("invalid file name", map[string]any{"field": "fileName", "value": name})
	}
	return name, nil
}

var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"txt":  "text/plain",
	"zip":  "application/zip",
}

// mimeTypeFor uses a fixed table so results do not depend on the host's mime database.
func mimeTypeFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}
