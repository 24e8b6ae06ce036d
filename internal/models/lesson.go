package models

import "time"

// CatalogStatus is the visibility state shared by lessons and exercises
type CatalogStatus int16

const (
	CatalogActive   CatalogStatus = 1
	CatalogInactive CatalogStatus = 2
)

type Lesson struct {
	ID       uint          `json:"id" gorm:"primaryKey"`
	Title    string        `json:"title" gorm:"size:255;not null"`
	Type     string        `json:"type" gorm:"size:50"`
	Content  string        `json:"content" gorm:"type:text"`
	Category string        `json:"category" gorm:"size:100"`
	Level    string        `json:"level" gorm:"size:50"`
	StatusID CatalogStatus `json:"status_id" gorm:"not null;default:1;index"`

	CreatedDate  time.Time  `json:"created_date" gorm:"autoCreateTime"`
	ModifiedDate time.Time  `json:"modified_date" gorm:"autoUpdateTime"`
	DeletedDate  *time.Time `json:"deleted_date,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

func (l *Lesson) IsActive() bool {
	return l.StatusID == CatalogActive
}

// UserLesson is the lesson progress record for one (user, lesson) pair
type UserLesson struct {
	ID       uint           `json:"id" gorm:"primaryKey"`
	UserID   uint           `json:"user_id" gorm:"not null;uniqueIndex:uq_user_lessons_user_lesson"`
	LessonID uint           `json:"lesson_id" gorm:"not null;uniqueIndex:uq_user_lessons_user_lesson"`
	StatusID ProgressStatus `json:"status_id" gorm:"not null"`

	Lesson *Lesson `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`

	CreatedDate  time.Time  `json:"created_date"`
	ModifiedDate time.Time  `json:"modified_date"`
	DeletedDate  *time.Time `json:"deleted_date,omitempty"`
}

func (UserLesson) TableName() string {
	return "user_lessons"
}
