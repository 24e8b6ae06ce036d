package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/validator"
)

type lessonService struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	logger       *slog.Logger
	validator    *validator.Validator
}

func NewLessonService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger, validator *validator.Validator) LessonService {
	return &lessonService{
		repo:         repo,
		cacheManager: cacheManager,
		logger:       logger,
		validator:    validator,
	}
}

func (s *lessonService) Create(ctx context.Context, req *models.LessonCreateRequest) (*models.Lesson, error) {
	s.logger.Info("Creating lesson", "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	if err := s.ensureTitleAvailable(ctx, req.Title, 0); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		Title:    req.Title,
		Type:     req.Type,
		Content:  req.Content,
		Category: req.Category,
		Level:    req.Level,
		StatusID: models.CatalogActive,
	}
	if err := s.repo.Lesson().Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("Lesson created successfully", "lesson_id", lesson.ID)
	return lesson, nil
}

func (s *lessonService) GetByID(ctx context.Context, id uint, scope repositories.CatalogScope) (*models.Lesson, error) {
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lesson.IsActive() && !scope.IncludeInactive {
		return nil, NewNotFoundError("lesson %d not found", id)
	}
	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, id uint, req *models.LessonUpdateRequest) (*models.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != lesson.Title {
		if err := s.ensureTitleAvailable(ctx, *req.Title, id); err != nil {
			return nil, err
		}
		lesson.Title = *req.Title
	}
	if req.Type != nil {
		lesson.Type = *req.Type
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.Category != nil {
		lesson.Category = *req.Category
	}
	if req.Level != nil {
		lesson.Level = *req.Level
	}

	if err := s.repo.Lesson().Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	s.logger.Info("Lesson updated", "lesson_id", id)
	return lesson, nil
}

// Delete hides the lesson; progress rows are kept
func (s *lessonService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Lesson().SetStatus(ctx, id, models.CatalogInactive); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("lesson %d not found", id)
		}
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	s.logger.Info("Lesson deleted", "lesson_id", id)
	return nil
}

func (s *lessonService) Restore(ctx context.Context, id uint) error {
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return err
	}
	if lesson.IsActive() {
		return nil
	}
	if err := s.ensureTitleAvailable(ctx, lesson.Title, id); err != nil {
		return err
	}
	if err := s.repo.Lesson().SetStatus(ctx, id, models.CatalogActive); err != nil {
		return fmt.Errorf("failed to restore lesson: %w", err)
	}
	s.logger.Info("Lesson restored", "lesson_id", id)
	return nil
}

func (s *lessonService) List(ctx context.Context, filters repositories.LessonFilters, page, size int) (*models.PaginatedResponse, error) {
	page, size = normalizePage(page, size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	lessons, total, err := s.repo.Lesson().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	if lessons == nil {
		lessons = []*models.Lesson{}
	}
	return models.NewPaginatedResponse(lessons, total, page, size), nil
}

func (s *lessonService) getLesson(ctx context.Context, id uint) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("lesson %d not found", id)
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

// ensureTitleAvailable rejects a title already used by another active lesson
func (s *lessonService) ensureTitleAvailable(ctx context.Context, title string, excludeID uint) error {
	exists, err := s.repo.Lesson().ExistsActiveByTitle(ctx, title, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check lesson title: %w", err)
	}
	if exists {
		return NewConflictError("lesson %q already exists", title)
	}
	return nil
}

// Page sizes
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
