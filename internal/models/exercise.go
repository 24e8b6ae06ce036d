package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type ExerciseType string

const (
	ExerciseMultipleChoice ExerciseType = "multiple_choice"
	ExerciseFillIn         ExerciseType = "fill_in"
)

func (t ExerciseType) IsValid() bool {
	return t == ExerciseMultipleChoice || t == ExerciseFillIn
}

type ExerciseOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Exercise struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	LessonID      uint           `json:"lesson_id" gorm:"not null;index"`
	Title         string         `json:"title" gorm:"size:255;not null"`
	Description   string         `json:"description" gorm:"type:text"`
	Type          ExerciseType   `json:"type" gorm:"size:30;not null"`
	Content       string         `json:"content" gorm:"type:text"`
	Options       datatypes.JSON `json:"options" gorm:"type:jsonb"`
	CorrectAnswer string         `json:"correct_answer,omitempty" gorm:"type:text;not null"`
	Duration      int            `json:"duration"`
	StatusID      CatalogStatus  `json:"status_id" gorm:"not null;default:1"`

	Lesson *Lesson `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`

	CreatedDate  time.Time  `json:"created_date" gorm:"autoCreateTime"`
	ModifiedDate time.Time  `json:"modified_date" gorm:"autoUpdateTime"`
	DeletedDate  *time.Time `json:"deleted_date,omitempty"`
}

func (Exercise) TableName() string {
	return "exercises"
}

func (e *Exercise) IsActive() bool {
	return e.StatusID == CatalogActive
}

// OptionList decodes the stored options column
func (e *Exercise) OptionList() ([]ExerciseOption, error) {
	if len(e.Options) == 0 || string(e.Options) == "null" {
		return nil, nil
	}
	var opts []ExerciseOption
	if err := json.Unmarshal(e.Options, &opts); err != nil {
		return nil, fmt.Errorf("decode exercise options: %w", err)
	}
	return opts, nil
}

// SetOptions encodes opts into the options column; fill-in exercises never carry options
func (e *Exercise) SetOptions(opts []ExerciseOption) error {
	if e.Type == ExerciseFillIn || len(opts) == 0 {
		e.Options = nil
		return nil
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode exercise options: %w", err)
	}
	e.Options = datatypes.JSON(raw)
	return nil
}

// UserExercise is the exercise progress record for one (user, exercise) pair
type UserExercise struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"not null;uniqueIndex:uq_user_exercises_user_exercise"`
	ExerciseID uint           `json:"exercise_id" gorm:"not null;uniqueIndex:uq_user_exercises_user_exercise"`
	StatusID   ProgressStatus `json:"status_id" gorm:"not null"`
	UserAnswer *string        `json:"user_answer" gorm:"type:text"`
	Score      float64        `json:"score" gorm:"type:numeric(5,2);not null;default:0"`

	CreatedDate  time.Time  `json:"created_date"`
	ModifiedDate time.Time  `json:"modified_date"`
	DeletedDate  *time.Time `json:"deleted_date,omitempty"`
}

func (UserExercise) TableName() string {
	return "user_exercises"
}
