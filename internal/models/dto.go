package models

import "time"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100,alphanum"`
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

type LessonCreateRequest struct {
	Title    string `json:"title" validate:"required,catalog_title"`
	Type     string `json:"type" validate:"omitempty,max=50"`
	Content  string `json:"content" validate:"omitempty"`
	Category string `json:"category" validate:"omitempty,max=100"`
	Level    string `json:"level" validate:"omitempty,max=50"`
}

type LessonUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,catalog_title"`
	Type     *string `json:"type" validate:"omitempty,max=50"`
	Content  *string `json:"content"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Level    *string `json:"level" validate:"omitempty,max=50"`
}

type ExerciseCreateRequest struct {
	LessonID      uint             `json:"lesson_id" validate:"required"`
	Title         string           `json:"title" validate:"required,catalog_title"`
	Description   string           `json:"description" validate:"omitempty,max=2000"`
	Type          ExerciseType     `json:"type" validate:"required,exercise_type"`
	Content       string           `json:"content"`
	Options       []ExerciseOption `json:"options" validate:"omitempty,dive"`
	CorrectAnswer string           `json:"correct_answer" validate:"required"`
	Duration      int              `json:"duration" validate:"min=0,max=86400"`
}

type ExerciseUpdateRequest struct {
	LessonID      *uint            `json:"lesson_id"`
	Title         *string          `json:"title" validate:"omitempty,catalog_title"`
	Description   *string          `json:"description" validate:"omitempty,max=2000"`
	Type          *ExerciseType    `json:"type" validate:"omitempty,exercise_type"`
	Content       *string          `json:"content"`
	Options       []ExerciseOption `json:"options" validate:"omitempty,dive"`
	CorrectAnswer *string          `json:"correct_answer" validate:"omitempty,min=1"`
	Duration      *int             `json:"duration" validate:"omitempty,min=0,max=86400"`
}

// StudyLessonRequest records lesson progress for the calling user
type StudyLessonRequest struct {
	LessonID uint           `json:"lesson_id" validate:"required"`
	StatusID ProgressStatus `json:"status_id"`
}

// DoExerciseRequest records one exercise attempt; Answer is scored against the correct answer
type DoExerciseRequest struct {
	ExerciseID uint           `json:"exercise_id" validate:"required"`
	UserAnswer *string        `json:"user_answer"`
	StatusID   ProgressStatus `json:"status_id"`
}

type ListLessonsParams struct {
	Filters  string
	Category string
	Level    string
	ID       *uint
	Page     int
	Size     int
}

type ListExercisesParams struct {
	Filters  string
	LessonID *uint
	Type     *ExerciseType
	ID       *uint
	Page     int
	Size     int
}

type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Size       int         `json:"size"`
	TotalPages int         `json:"total_pages"`
}

// NewPaginatedResponse computes TotalPages from total and size
func NewPaginatedResponse(items interface{}, total int64, page, size int) *PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: totalPages,
	}
}

type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type UserGrowthStats struct {
	Months        int            `json:"months"`
	TotalNewUsers int64          `json:"total_new_users"`
	Series        []MonthlyCount `json:"series"`
}

type ImportResult struct {
	TotalRows int      `json:"total_rows"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// UserCreateRequest is an admin-created account; GroupID defaults to the user group
type UserCreateRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=100,alphanum"`
	Email       string `json:"email" validate:"required,email,max=255"`
	FullName    string `json:"full_name" validate:"omitempty,max=255"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	GroupID     int16  `json:"group_id" validate:"omitempty,min=1"`
}

type UserUpdateRequest struct {
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	FullName    *string `json:"full_name" validate:"omitempty,max=255"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	GroupID     *int16  `json:"group_id" validate:"omitempty,min=1"`
}

// ChangePasswordRequest needs OldPassword unless an admin resets another user's password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type RoleCreateRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"omitempty,max=255"`
	Permission  string `json:"permission" validate:"omitempty,max=255"`
}

type RoleUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Permission  *string `json:"permission" validate:"omitempty,max=255"`
}
