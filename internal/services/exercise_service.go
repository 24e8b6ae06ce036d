package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ezenglish/learning-service/internal/events"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/validator"
)

// Import sheet columns, in order
const (
	colLessonID = iota
	colTitle
	colDescription
	colType
	colContent
	colOptions
	colCorrectAnswer
	colDuration
)

type exerciseService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewExerciseService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ExerciseService {
	return &exerciseService{
		repo:           repo,
		eventPublisher: publisher,
		logger:         logger,
		validator:      validator,
	}
}

func (s *exerciseService) Create(ctx context.Context, req *models.ExerciseCreateRequest) (*models.Exercise, error) {
	s.logger.Info("Creating exercise", "lesson_id", req.LessonID, "title", req.Title)

	if err := s.validator.ValidateExerciseCreate(req); err != nil {
		return nil, NewValidationError(err)
	}

	if _, err := requireActiveLesson(ctx, s.repo, req.LessonID); err != nil {
		return nil, err
	}

	exercise, err := newExercise(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Exercise().Create(ctx, exercise); err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}

	s.logger.Info("Exercise created successfully", "exercise_id", exercise.ID)
	return exercise, nil
}

func (s *exerciseService) GetByID(ctx context.Context, id uint, scope repositories.CatalogScope) (*models.Exercise, error) {
	exercise, err := s.getExercise(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exercise.IsActive() && !scope.IncludeInactive {
		return nil, NewNotFoundError("exercise %d not found", id)
	}
	if !scope.IncludeAnswers {
		exercise.CorrectAnswer = ""
	}
	return exercise, nil
}

func (s *exerciseService) Update(ctx context.Context, id uint, req *models.ExerciseUpdateRequest) (*models.Exercise, error) {
	exercise, err := s.getExercise(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.LessonID != nil && *req.LessonID != exercise.LessonID {
		if _, err := requireActiveLesson(ctx, s.repo, *req.LessonID); err != nil {
			return nil, err
		}
		exercise.LessonID = *req.LessonID
	}
	if req.Title != nil {
		exercise.Title = *req.Title
	}
	if req.Description != nil {
		exercise.Description = *req.Description
	}
	if req.Type != nil {
		exercise.Type = *req.Type
	}
	if req.Content != nil {
		exercise.Content = *req.Content
	}
	if req.CorrectAnswer != nil {
		exercise.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Duration != nil {
		exercise.Duration = *req.Duration
	}

	opts := req.Options
	if opts == nil {
		if opts, err = exercise.OptionList(); err != nil {
			return nil, fmt.Errorf("failed to read exercise options: %w", err)
		}
	}
	if err := exercise.SetOptions(opts); err != nil {
		return nil, fmt.Errorf("failed to set exercise options: %w", err)
	}

	if err := s.validator.ValidateExerciseUpdate(req, exercise); err != nil {
		return nil, NewValidationError(err)
	}

	if err := s.repo.Exercise().Update(ctx, exercise); err != nil {
		return nil, fmt.Errorf("failed to update exercise: %w", err)
	}

	s.logger.Info("Exercise updated", "exercise_id", id)
	return exercise, nil
}

func (s *exerciseService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Exercise().SetStatus(ctx, id, models.CatalogInactive); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("exercise %d not found", id)
		}
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	s.logger.Info("Exercise deleted", "exercise_id", id)
	return nil
}

func (s *exerciseService) Restore(ctx context.Context, id uint) error {
	if err := s.repo.Exercise().SetStatus(ctx, id, models.CatalogActive); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("exercise %d not found", id)
		}
		return fmt.Errorf("failed to restore exercise: %w", err)
	}
	s.logger.Info("Exercise restored", "exercise_id", id)
	return nil
}

func (s *exerciseService) List(ctx context.Context, filters repositories.ExerciseFilters, page, size int) (*models.PaginatedResponse, error) {
	page, size = normalizePage(page, size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	exercises, total, err := s.repo.Exercise().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	if exercises == nil {
		exercises = []*models.Exercise{}
	}
	if !filters.Scope.IncludeAnswers {
		for _, e := range exercises {
			e.CorrectAnswer = ""
		}
	}
	return models.NewPaginatedResponse(exercises, total, page, size), nil
}

// Import creates exercises from the first sheet of an xlsx workbook. Row 1 is a
// header. Invalid rows are reported and skipped; valid rows are created together.
func (s *exerciseService) Import(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, NewInvalidArgumentError("file is not a valid xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewInvalidArgumentError("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	result := &models.ImportResult{Errors: []string{}}
	lessons := make(map[uint]error)
	var exercises []*models.Exercise

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if isBlankRow(row) {
			continue
		}
		result.TotalRows++
		rowNum := i + 1

		req, err := parseImportRow(row)
		if err == nil {
			err = s.validator.ValidateExerciseCreate(req)
		}
		if err == nil {
			lessonErr, seen := lessons[req.LessonID]
			if !seen {
				_, lessonErr = requireActiveLesson(ctx, s.repo, req.LessonID)
				lessons[req.LessonID] = lessonErr
			}
			err = lessonErr
		}
		var exercise *models.Exercise
		if err == nil {
			exercise, err = newExercise(req)
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, importErrorMessage(err)))
			continue
		}
		exercises = append(exercises, exercise)
	}

	if len(exercises) > 0 {
		err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			return tx.Exercise().CreateBatch(ctx, exercises)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to import exercises: %w", err)
		}
	}
	result.Created = len(exercises)

	s.logger.Info("Exercises imported",
		"total_rows", result.TotalRows, "created", result.Created, "skipped", result.Skipped)

	if result.Created > 0 && s.eventPublisher != nil {
		ids := make([]uint, len(exercises))
		for i, e := range exercises {
			ids[i] = e.ID
		}
		event := events.NewEvent(events.EventExerciseImported, events.ExerciseImportedData{
			ExerciseIDs: ids,
			Skipped:     result.Skipped,
		})
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish import event", "error", err)
		}
	}

	return result, nil
}

func (s *exerciseService) getExercise(ctx context.Context, id uint) (*models.Exercise, error) {
	exercise, err := s.repo.Exercise().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exercise %d not found", id)
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return exercise, nil
}

func newExercise(req *models.ExerciseCreateRequest) (*models.Exercise, error) {
	exercise := &models.Exercise{
		LessonID:      req.LessonID,
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Content:       req.Content,
		CorrectAnswer: req.CorrectAnswer,
		Duration:      req.Duration,
		StatusID:      models.CatalogActive,
	}
	if err := exercise.SetOptions(req.Options); err != nil {
		return nil, fmt.Errorf("failed to set exercise options: %w", err)
	}
	return exercise, nil
}

// parseImportRow reads one sheet row. Options are written as "id:text|id:text".
func parseImportRow(row []string) (*models.ExerciseCreateRequest, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	lessonID, err := strconv.ParseUint(cell(colLessonID), 10, 32)
	if err != nil {
		return nil, NewInvalidArgumentError("lesson_id %q is not a number", cell(colLessonID))
	}

	duration := 0
	if v := cell(colDuration); v != "" {
		if duration, err = strconv.Atoi(v); err != nil {
			return nil, NewInvalidArgumentError("duration %q is not a number", v)
		}
	}

	var opts []models.ExerciseOption
	if v := cell(colOptions); v != "" {
		for _, part := range strings.Split(v, "|") {
			id, text, ok := strings.Cut(part, ":")
			if !ok {
				return nil, NewInvalidArgumentError("option %q must be written as id:text", part)
			}
			opts = append(opts, models.ExerciseOption{ID: strings.TrimSpace(id), Text: strings.TrimSpace(text)})
		}
	}

	return &models.ExerciseCreateRequest{
		LessonID:      uint(lessonID),
		Title:         cell(colTitle),
		Description:   cell(colDescription),
		Type:          models.ExerciseType(cell(colType)),
		Content:       cell(colContent),
		Options:       opts,
		CorrectAnswer: cell(colCorrectAnswer),
		Duration:      duration,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func importErrorMessage(err error) string {
	if verrs := ValidationDetails(err); len(verrs) > 0 {
		return verrs.Error()
	}
	return PublicMessage(err)
}
