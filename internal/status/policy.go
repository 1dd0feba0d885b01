// Package status holds the claim status transition table. Every query is a pure
// lookup on a table built once at init; nothing here mutates after start-up.
package status

import (
	"strings"

	"github.com/spec-kit/claims-service/internal/domain"
)

// Action names a non-transition operation gated by the current status.
type Action string

const (
	ActionEdit        Action = "edit"
	ActionAssign      Action = "assign"
	ActionComment     Action = "comment"
	ActionAttachFiles Action = "attachFiles"
	ActionReassign    Action = "reassign"
)

// Field names that transitions may require.
const (
	FieldResolutionDetails = "resolutionDetails"
	FieldClosureNotes      = "closureNotes"
)

// Rule describes what a status permits.
type Rule struct {
	AllowedTransitions    []domain.ClaimStatus
	CanEdit               bool
	CanAssign             bool
	CanComment            bool
	CanAttachFiles        bool
	CanReassign           bool
	RequiredForTransition map[domain.ClaimStatus][]string
}

// Info is a presentable view of a status.
type Info struct {
	Value       domain.ClaimStatus
	Label       string
	Description string
}

var ordered = []domain.ClaimStatus{
	domain.ClaimStatusOpen,
	domain.ClaimStatusInProgress,
	domain.ClaimStatusWaitingClient,
	domain.ClaimStatusResolved,
	domain.ClaimStatusClosed,
	domain.ClaimStatusCancelled,
}

var rules = map[domain.ClaimStatus]Rule{
	domain.ClaimStatusOpen: {
		AllowedTransitions: []domain.ClaimStatus{domain.ClaimStatusInProgress, domain.ClaimStatusCancelled},
		CanEdit:            true,
		CanAssign:          true,
		CanComment:         true,
		CanAttachFiles:     true,
		CanReassign:        true,
	},
	domain.ClaimStatusInProgress: {
		AllowedTransitions: []domain.ClaimStatus{
			domain.ClaimStatusWaitingClient,
			domain.ClaimStatusResolved,
			domain.ClaimStatusOpen,
			domain.ClaimStatusCancelled,
		},
		CanEdit:        true,
		CanAssign:      true,
		CanComment:     true,
		CanAttachFiles: true,
		CanReassign:    true,
		RequiredForTransition: map[domain.ClaimStatus][]string{
			domain.ClaimStatusResolved: {FieldResolutionDetails},
		},
	},
	// Comments are forbidden here even though the claim may still move on to
	// RESUELTO or EN_PROCESO: permissions and edges are independent.
	domain.ClaimStatusWaitingClient: {
		AllowedTransitions: []domain.ClaimStatus{
			domain.ClaimStatusInProgress,
			domain.ClaimStatusResolved,
			domain.ClaimStatusCancelled,
		},
	},
	domain.ClaimStatusResolved: {
		AllowedTransitions: []domain.ClaimStatus{domain.ClaimStatusClosed, domain.ClaimStatusInProgress},
		CanComment:         true,
		RequiredForTransition: map[domain.ClaimStatus][]string{
			domain.ClaimStatusClosed: {FieldClosureNotes},
		},
	},
	domain.ClaimStatusClosed: {},
	domain.ClaimStatusCancelled: {
		AllowedTransitions: []domain.ClaimStatus{domain.ClaimStatusOpen},
		CanComment:         true,
	},
}

var descriptions = map[domain.ClaimStatus]string{
	domain.ClaimStatusOpen:          "Reclamo recien creado, pendiente de asignacion",
	domain.ClaimStatusInProgress:    "En trabajo activo por el area asignado",
	domain.ClaimStatusWaitingClient: "Esperando respuesta o informacion del cliente",
	domain.ClaimStatusResolved:      "Solucion implementada, pendiente de confirmacion/cierre",
	domain.ClaimStatusClosed:        "Reclamo finalizado y archivado",
	domain.ClaimStatusCancelled:     "Reclamo cancelado por diversas razones",
}

// ValidateTransition reports whether to is reachable from from in one step.
func ValidateTransition(from, to domain.ClaimStatus) bool {
	for _, candidate := range rules[from].AllowedTransitions {
		if candidate == to {
			return true
		}
	}
	return false
}

// RequiredFields returns the extra field names the transition needs.
func RequiredFields(from, to domain.ClaimStatus) []string {
	fields := rules[from].RequiredForTransition[to]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// CanPerformAction looks up one permission flag for the current status.
// Unknown statuses and actions are denied.
func CanPerformAction(current domain.ClaimStatus, action Action) bool {
	rule, ok := rules[current]
	if !ok {
		return false
	}
	switch action {
	case ActionEdit:
		return rule.CanEdit
	case ActionAssign:
		return rule.CanAssign
	case ActionComment:
		return rule.CanComment
	case ActionAttachFiles:
		return rule.CanAttachFiles
	case ActionReassign:
		return rule.CanReassign
	default:
		return false
	}
}

// PossibleTransitions lists the statuses reachable from current.
func PossibleTransitions(current domain.ClaimStatus) []domain.ClaimStatus {
	allowed := rules[current].AllowedTransitions
	out := make([]domain.ClaimStatus, len(allowed))
	copy(out, allowed)
	return out
}

// RuleFor returns a copy of the rule for a status.
func RuleFor(current domain.ClaimStatus) (Rule, bool) {
	rule, ok := rules[current]
	if !ok {
		return Rule{}, false
	}
	rule.AllowedTransitions = PossibleTransitions(current)
	if rule.RequiredForTransition != nil {
		required := make(map[domain.ClaimStatus][]string, len(rule.RequiredForTransition))
		for target := range rule.RequiredForTransition {
			required[target] = RequiredFields(current, target)
		}
		rule.RequiredForTransition = required
	}
	return rule, true
}

// Describe returns the human description of a status.
func Describe(s domain.ClaimStatus) string {
	return descriptions[s]
}

// Label formats a status for display, e.g. EN_PROCESO becomes "En Proceso".
func Label(s domain.ClaimStatus) string {
	words := strings.Split(strings.ToLower(string(s)), "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// All returns every status in lifecycle order.
func All() []domain.ClaimStatus {
	out := make([]domain.ClaimStatus, len(ordered))
	copy(out, ordered)
	return out
}

// Available describes every status.
func Available() []Info {
	infos := make([]Info, 0, len(ordered))
	for _, s := range ordered {
		infos = append(infos, Info{Value: s, Label: Label(s), Description: Describe(s)})
	}
	return infos
}

// Parse resolves a status name case-insensitively.
func Parse(value string) (domain.ClaimStatus, bool) {
	candidate := domain.ClaimStatus(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := rules[candidate]; !ok {
		return "", false
	}
	return candidate, true
}

// ParseAction resolves an action name.
func ParseAction(value string) (Action, bool) {
	switch Action(value) {
	case ActionEdit, ActionAssign, ActionComment, ActionAttachFiles, ActionReassign:
		return Action(value), true
	}
	return "", false
}
