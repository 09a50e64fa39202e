package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
)

type memoryActivityRepo struct {
	entries    []models.ActivityLog
	lastFilter repository.ActivityLogFilter
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	m.lastFilter = filter
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksEmail(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  "Instructor",
		Action:     "Submission.Graded",
		EntityType: "submission",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"student_email": "student@example.com",
			"grade":         12.5,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["student_email"])
	require.Equal(t, 12.5, entry.Metadata["grade"])
	require.Equal(t, "instructor", entry.ActorRole)
	require.Equal(t, "submission.graded", entry.Action)

	_, err = svc.Record(context.Background(), ActivityEntry{EntityType: "submission"})
	require.Error(t, err)
}

func TestActivityServiceListPaginates(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())
	for i := 0; i < 5; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{ActorID: 1, Action: "assessment.created", EntityType: "assessment"})
		require.NoError(t, err)
	}

	list, err := svc.List(context.Background(), dto.ActivityListRequest{Page: 2, PageSize: 2, ActorID: 1, EntityID: 7, Action: " Assessment.Created "})
	require.NoError(t, err)
	require.Equal(t, int64(5), list.Pagination.TotalItems)
	require.Equal(t, 3, list.Pagination.TotalPages)
	require.Equal(t, 2, list.Pagination.Page)
	require.Equal(t, "assessment.created", repo.lastFilter.Action)
	require.Equal(t, uint(7), *repo.lastFilter.EntityID)
	require.Equal(t, "system", list.Items[0].ActorRole)
}

func TestActivityActorIsStaff(t *testing.T) {
	require.True(t, ActivityActor{Role: "Instructor"}.IsStaff())
	require.True(t, ActivityActor{Role: models.RoleAdmin}.IsStaff())
	require.False(t, ActivityActor{Role: models.RoleStudent}.IsStaff())
	require.False(t, ActivityActor{}.IsStaff())
}

func ptrUint(v uint) *uint {
	return &v
}
