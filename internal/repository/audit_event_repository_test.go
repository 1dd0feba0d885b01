package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/claims-service/internal/domain"
)

func TestAuditSearchWhereMatchesUserLiterally(t *testing.T) {
	user := "  A_b%  "
	where, args := auditSearchWhere(AuditEventFilter{User: &user})

	assert.Equal(t, "1=1 AND strpos(LOWER(actor), $1) > 0", where)
	assert.NotContains(t, where, "LIKE")
	assert.Equal(t, []any{"a_b%"}, args)
}

func TestAuditSearchWhereNumbersArguments(t *testing.T) {
	claimID := "c-1"
	action := domain.ActionStatusChanged
	user := "ana"
	blank := "   "
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	where, args := auditSearchWhere(AuditEventFilter{
		ClaimID:     &claimID,
		ActionType:  &action,
		User:        &user,
		CreatedFrom: &from,
	})
	assert.Equal(t, "1=1 AND claim_id=$1 AND action_type=$2 AND strpos(LOWER(actor), $3) > 0 AND created_at >= $4", where)
	assert.Equal(t, []any{"c-1", action, "ana", from}, args)

	where, args = auditSearchWhere(AuditEventFilter{User: &blank})
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
}
