package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedAssessment(t *testing.T, db *gorm.DB, questions ...models.Question) (models.Course, models.Assessment) {
	t.Helper()
	course := models.Course{Name: "Physics"}
	require.NoError(t, db.Create(&course).Error)

	assessment := models.Assessment{
		CourseID:   course.ID,
		Title:      "Quiz 1",
		TotalMarks: models.SumMarks(questions),
		Questions:  questions,
	}
	require.NoError(t, NewAssessmentRepository(db).Create(t.Context(), &assessment))
	return course, assessment
}
