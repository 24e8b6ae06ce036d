package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/events"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/validator"
)

func TestLessonService(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewLessonService(repo, cache.NewCacheManager(nil), testLogger(), validator.New())

	lesson, err := svc.Create(ctx, &models.LessonCreateRequest{Title: "Greetings", Category: "basics"})
	require.NoError(t, err)
	assert.Equal(t, models.CatalogActive, lesson.StatusID)

	_, err = svc.Create(ctx, &models.LessonCreateRequest{Title: "Greetings"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, &models.LessonCreateRequest{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	level := "A1"
	updated, err := svc.Update(ctx, lesson.ID, &models.LessonUpdateRequest{Level: &level})
	require.NoError(t, err)
	assert.Equal(t, "A1", updated.Level)
	assert.Equal(t, "Greetings", updated.Title)

	require.NoError(t, svc.Delete(ctx, lesson.ID))

	_, err = svc.GetByID(ctx, lesson.ID, repositories.CatalogScope{})
	assert.ErrorIs(t, err, ErrNotFound)
	hidden, err := svc.GetByID(ctx, lesson.ID, repositories.CatalogScope{IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, models.CatalogInactive, hidden.StatusID)

	// The title is free again while the original is inactive
	replacement, err := svc.Create(ctx, &models.LessonCreateRequest{Title: "Greetings"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Restore(ctx, lesson.ID), ErrConflict)

	require.NoError(t, svc.Delete(ctx, replacement.ID))
	require.NoError(t, svc.Restore(ctx, lesson.ID))

	page, err := svc.List(ctx, repositories.LessonFilters{}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Equal(t, 1, page.TotalPages)

	assert.ErrorIs(t, svc.Delete(ctx, 999), ErrNotFound)
}

func TestExerciseService_CreateAndHideAnswers(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	repo.addLesson(10, models.CatalogActive)
	repo.addLesson(11, models.CatalogInactive)
	svc := NewExerciseService(repo, events.NewMockEventPublisher(testLogger()), testLogger(), validator.New())

	req := &models.ExerciseCreateRequest{
		LessonID: 10,
		Title:    "Pick the greeting",
		Type:     models.ExerciseMultipleChoice,
		Options: []models.ExerciseOption{
			{ID: "a", Text: "Hello"},
			{ID: "b", Text: "Table"},
		},
		CorrectAnswer: "Hello",
	}
	exercise, err := svc.Create(ctx, req)
	require.NoError(t, err)
	opts, err := exercise.OptionList()
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	got, err := svc.GetByID(ctx, exercise.ID, repositories.CatalogScope{})
	require.NoError(t, err)
	assert.Empty(t, got.CorrectAnswer)

	got, err = svc.GetByID(ctx, exercise.ID, repositories.CatalogScope{IncludeAnswers: true})
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.CorrectAnswer)

	page, err := svc.List(ctx, repositories.ExerciseFilters{}, 1, 10)
	require.NoError(t, err)
	items := page.Items.([]*models.Exercise)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].CorrectAnswer)

	inactive := *req
	inactive.LessonID = 11
	_, err = svc.Create(ctx, &inactive)
	assert.ErrorIs(t, err, ErrNotFound)

	bad := *req
	bad.CorrectAnswer = "Chair"
	_, err = svc.Create(ctx, &bad)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.NotEmpty(t, ValidationDetails(err))
}

func TestExerciseService_UpdateToFillInClearsOptions(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	repo.addLesson(10, models.CatalogActive)
	svc := NewExerciseService(repo, nil, testLogger(), validator.New())

	exercise, err := svc.Create(ctx, &models.ExerciseCreateRequest{
		LessonID:      10,
		Title:         "Pick",
		Type:          models.ExerciseMultipleChoice,
		Options:       []models.ExerciseOption{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}},
		CorrectAnswer: "a",
	})
	require.NoError(t, err)

	fillIn := models.ExerciseFillIn
	answer := "hello"
	updated, err := svc.Update(ctx, exercise.ID, &models.ExerciseUpdateRequest{Type: &fillIn, CorrectAnswer: &answer})
	require.NoError(t, err)
	assert.Nil(t, updated.Options)
	assert.Equal(t, "hello", updated.CorrectAnswer)

	_, err = svc.Update(ctx, 999, &models.ExerciseUpdateRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestExerciseService_Import(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	repo.addLesson(10, models.CatalogActive)
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewExerciseService(repo, publisher, testLogger(), validator.New())

	buf := buildWorkbook(t, [][]interface{}{
		{"lesson_id", "title", "description", "type", "content", "options", "correct_answer", "duration"},
		{10, "Greeting", "", "multiple_choice", "Say hi", "a:Hello|b:Table", "Hello", 30},
		{10, "Spell cat", "", "fill_in", "c_t", "", "cat", ""},
		{404, "Orphan", "", "fill_in", "", "", "x", ""},
		{10, "Broken options", "", "multiple_choice", "", "a-Hello", "Hello", ""},
		{"ten", "Bad id", "", "fill_in", "", "", "x", ""},
		{10, "No answer", "", "fill_in", "", "", "", ""},
	})

	result, err := svc.Import(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, 6, result.TotalRows)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 4, result.Skipped)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Row 4")
	assert.Equal(t, 1, repo.txCount)
	assert.Len(t, repo.exercises, 2)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventExerciseImported, published[0].Type)
	data := published[0].Data.(events.ExerciseImportedData)
	assert.Len(t, data.ExerciseIDs, 2)

	_, err = svc.Import(ctx, bytes.NewBufferString("not a workbook"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
