package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/events"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/validator"
)

// ProgressConfig selects the transition policy per item kind and bounds each store round-trip
type ProgressConfig struct {
	LessonPolicy   models.TransitionPolicy
	ExercisePolicy models.TransitionPolicy
	StoreTimeout   time.Duration
}

type progressService struct {
	repo           repositories.Repository
	cacheManager   *cache.CacheManager
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	config         ProgressConfig
	now            func() time.Time
}

func NewProgressService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, config ProgressConfig) ProgressService {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = 5 * time.Second
	}
	return &progressService{
		repo:           repo,
		cacheManager:   cacheManager,
		eventPublisher: publisher,
		logger:         logger,
		validator:      validator,
		config:         config,
		now:            time.Now,
	}
}

// ComputeScore awards the full score for an exact answer match and nothing otherwise
func ComputeScore(userAnswer *string, correctAnswer string) float64 {
	if userAnswer == nil || *userAnswer != correctAnswer {
		return 0
	}
	return models.MaxExerciseScore
}

// CheckTransition validates moving an existing record from current to requested
func CheckTransition(policy models.TransitionPolicy, current, requested models.ProgressStatus) error {
	if policy == models.TransitionPermissive {
		return nil
	}
	if current == models.ProgressEnded {
		return NewInvalidArgumentError("progress already ended")
	}
	if requested <= current {
		return NewInvalidArgumentError("cannot revert progress from %d to %d", current, requested)
	}
	return nil
}

// checkStart validates the status of a record that does not exist yet
func checkStart(requested models.ProgressStatus) error {
	if requested != models.ProgressStarted {
		return NewInvalidArgumentError("progress must start with status %d", models.ProgressStarted)
	}
	return nil
}

// checkStatus runs after the existence checks so a missing user or item reports NotFound first
func (s *progressService) checkStatus(requested models.ProgressStatus) error {
	if err := s.validator.Var(requested, "progress_status"); err != nil {
		return NewInvalidArgumentError("invalid status %d", requested)
	}
	return nil
}

// ===== LESSONS =====

func (s *progressService) StudyLesson(ctx context.Context, userID uint, req *models.StudyLessonRequest) (*models.UserLesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	var (
		record  *models.UserLesson
		created bool
	)

	err := s.withStore(ctx, func(storeCtx context.Context, tx repositories.Repository) error {
		if err := requireActiveUser(storeCtx, tx, userID); err != nil {
			return err
		}
		if _, err := requireActiveLesson(storeCtx, tx, req.LessonID); err != nil {
			return err
		}
		if err := s.checkStatus(req.StatusID); err != nil {
			return err
		}

		existing, err := tx.Progress().FindLessonProgress(storeCtx, userID, req.LessonID, true)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to load lesson progress: %w", err)
		}

		now := s.now()
		if existing == nil {
			if err := checkStart(req.StatusID); err != nil {
				return err
			}
			record = &models.UserLesson{
				UserID:       userID,
				LessonID:     req.LessonID,
				StatusID:     req.StatusID,
				CreatedDate:  now,
				ModifiedDate: now,
			}
			created = true
		} else {
			if err := CheckTransition(s.config.LessonPolicy, existing.StatusID, req.StatusID); err != nil {
				return err
			}
			existing.StatusID = req.StatusID
			existing.ModifiedDate = now
			record = existing
		}

		if err := tx.Progress().SaveLessonProgress(storeCtx, record); err != nil {
			if repositories.IsDuplicateError(err) {
				return NewConflictError("lesson progress already exists")
			}
			return fmt.Errorf("failed to save lesson progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lesson progress recorded",
		"user_id", userID, "lesson_id", req.LessonID, "status_id", record.StatusID, "created", created)

	s.publishProgress(ctx, events.ProgressRecordedData{
		Kind:     string(models.ItemLesson),
		UserID:   userID,
		ItemID:   req.LessonID,
		StatusID: int16(record.StatusID),
		Created:  created,
	})

	return record, nil
}

func (s *progressService) ListUserLessons(ctx context.Context, userID uint) ([]*models.UserLesson, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	if err := requireActiveUser(storeCtx, s.repo, userID); err != nil {
		return nil, err
	}

	records, err := s.repo.Progress().ListLessonProgress(storeCtx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson progress: %w", err)
	}
	if records == nil {
		records = []*models.UserLesson{}
	}
	return records, nil
}

// ===== EXERCISES =====

func (s *progressService) DoExercise(ctx context.Context, userID uint, req *models.DoExerciseRequest) (*models.UserExercise, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	var (
		record  *models.UserExercise
		created bool
	)

	err := s.withStore(ctx, func(storeCtx context.Context, tx repositories.Repository) error {
		if err := requireActiveUser(storeCtx, tx, userID); err != nil {
			return err
		}
		exercise, err := requireActiveExercise(storeCtx, tx, req.ExerciseID)
		if err != nil {
			return err
		}
		if err := s.checkStatus(req.StatusID); err != nil {
			return err
		}

		lessonProgress, err := tx.Progress().FindLessonProgress(storeCtx, userID, exercise.LessonID, false)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewPreconditionFailedError("lesson %d has not been started", exercise.LessonID)
			}
			return fmt.Errorf("failed to load lesson progress: %w", err)
		}
		if lessonProgress.StatusID < models.ProgressStarted {
			return NewPreconditionFailedError("lesson %d has not been started", exercise.LessonID)
		}

		existing, err := tx.Progress().FindExerciseProgress(storeCtx, userID, req.ExerciseID, true)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to load exercise progress: %w", err)
		}

		now := s.now()
		score := ComputeScore(req.UserAnswer, exercise.CorrectAnswer)
		if existing == nil {
			if err := checkStart(req.StatusID); err != nil {
				return err
			}
			record = &models.UserExercise{
				UserID:       userID,
				ExerciseID:   req.ExerciseID,
				CreatedDate:  now,
				ModifiedDate: now,
			}
			created = true
		} else {
			if err := CheckTransition(s.config.ExercisePolicy, existing.StatusID, req.StatusID); err != nil {
				return err
			}
			record = existing
		}
		record.StatusID = req.StatusID
		record.UserAnswer = req.UserAnswer
		record.Score = score
		record.ModifiedDate = now

		if err := tx.Progress().SaveExerciseProgress(storeCtx, record); err != nil {
			if repositories.IsDuplicateError(err) {
				return NewConflictError("exercise progress already exists")
			}
			return fmt.Errorf("failed to save exercise progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exercise progress recorded",
		"user_id", userID, "exercise_id", req.ExerciseID, "status_id", record.StatusID,
		"score", record.Score, "created", created)

	cache.InvalidateRankingCache(ctx, s.cacheManager)

	score := record.Score
	s.publishProgress(ctx, events.ProgressRecordedData{
		Kind:     string(models.ItemExercise),
		UserID:   userID,
		ItemID:   req.ExerciseID,
		StatusID: int16(record.StatusID),
		Score:    &score,
		Created:  created,
	})

	return record, nil
}

func (s *progressService) DoExercises(ctx context.Context, userID uint, reqs []models.DoExerciseRequest) []*models.UserExercise {
	results := make([]*models.UserExercise, 0, len(reqs))
	for i := range reqs {
		record, err := s.DoExercise(ctx, userID, &reqs[i])
		if err != nil {
			s.logger.Warn("Skipping exercise in batch",
				"index", i, "user_id", userID, "exercise_id", reqs[i].ExerciseID, "error", err)
			continue
		}
		results = append(results, record)
	}
	return results
}

// ===== HELPERS =====

// withStore runs fn in one transaction bounded by the store timeout
func (s *progressService) withStore(ctx context.Context, fn func(context.Context, repositories.Repository) error) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	return s.repo.WithTransaction(storeCtx, func(tx repositories.Repository) error {
		return fn(storeCtx, tx)
	})
}

func (s *progressService) publishProgress(ctx context.Context, data events.ProgressRecordedData) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.NewEvent(events.EventProgressRecorded, data)); err != nil {
		s.logger.Error("Failed to publish progress event", "error", err, "kind", data.Kind, "item_id", data.ItemID)
	}
}

func requireActiveUser(ctx context.Context, repo repositories.Repository, userID uint) error {
	user, err := repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("user %d not found", userID)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive() {
		return NewNotFoundError("user %d not found", userID)
	}
	return nil
}

func requireActiveLesson(ctx context.Context, repo repositories.Repository, lessonID uint) (*models.Lesson, error) {
	lesson, err := repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("lesson %d not found", lessonID)
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if !lesson.IsActive() {
		return nil, NewNotFoundError("lesson %d not found", lessonID)
	}
	return lesson, nil
}

func requireActiveExercise(ctx context.Context, repo repositories.Repository, exerciseID uint) (*models.Exercise, error) {
	exercise, err := repo.Exercise().GetByID(ctx, exerciseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exercise %d not found", exerciseID)
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	if !exercise.IsActive() {
		return nil, NewNotFoundError("exercise %d not found", exerciseID)
	}
	return exercise, nil
}
