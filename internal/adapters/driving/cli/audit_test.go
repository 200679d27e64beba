package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/attest-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

func setupAuditTest(t *testing.T) *memory.AuditStore {
	t.Helper()

	store := memory.NewAuditStore()
	oldStore := auditStore
	oldOrg := orgID
	auditStore = store
	orgID = "org-1"
	t.Cleanup(func() {
		auditStore = oldStore
		orgID = oldOrg
	})
	return store
}

func TestAuditCmd_Use(t *testing.T) {
	assert.Equal(t, "audit", auditCmd.Use)
}

func TestAuditCmd_Empty(t *testing.T) {
	setupAuditTest(t)

	out, err := execute(t, "audit")

	assert.NoError(t, err)
	assert.Contains(t, out, "Audit log is empty")
}

func TestAuditCmd_ListsEntries(t *testing.T) {
	store := setupAuditTest(t)
	require.NoError(t, store.Append(context.Background(), &domain.AuditEntry{
		ID:          "ae-1",
		OrgID:       "org-1",
		EventType:   domain.AuditSyncCompleted,
		EntityType:  "sync_job",
		EntityID:    "job-1",
		Description: "sync job job-1 completed",
		Detail:      map[string]string{"artifacts_created": "5"},
		OccurredAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}))

	out, err := execute(t, "audit")

	assert.NoError(t, err)
	assert.Contains(t, out, "integration.sync_completed")
	assert.Contains(t, out, "sync job job-1 completed")
	assert.Contains(t, out, "artifacts_created: 5")
}
