package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

// fakeRepository is an in-memory repositories.Repository. Transactions run fn
// directly against the same maps.
type fakeRepository struct {
	mu sync.Mutex

	users     map[uint]*models.User
	roles     map[int16]*models.UserGroup
	lessons   map[uint]*models.Lesson
	exercises map[uint]*models.Exercise
	userLess  map[[2]uint]*models.UserLesson
	userExer  map[[2]uint]*models.UserExercise
	nextID    uint

	txCount       int
	txHadDeadline bool
	lockedRows    int
	failSave      error

	// afterScoreSnapshot runs once SumScoresByUser has read the scores
	afterScoreSnapshot func()
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:     make(map[uint]*models.User),
		roles: map[int16]*models.UserGroup{
			models.GroupAdmin: {ID: models.GroupAdmin, Name: "admin", StatusID: models.RoleActive},
			models.GroupUser:  {ID: models.GroupUser, Name: "user", StatusID: models.RoleActive},
		},
		lessons:   make(map[uint]*models.Lesson),
		exercises: make(map[uint]*models.Exercise),
		userLess:  make(map[[2]uint]*models.UserLesson),
		userExer:  make(map[[2]uint]*models.UserExercise),
		nextID:    100,
	}
}

func notFound(op string) error {
	return fmt.Errorf("%s failed: %w", op, gorm.ErrRecordNotFound)
}

func duplicate(op string) error {
	return fmt.Errorf("%s failed: %w", op, gorm.ErrDuplicatedKey)
}

func (f *fakeRepository) id() uint {
	f.nextID++
	return f.nextID
}

// ===== seeding =====

func (f *fakeRepository) addUser(id uint, username string) *models.User {
	u := &models.User{ID: id, Username: username, Email: username + "@example.com", UserGroupID: models.GroupUser, StatusID: models.UserActive}
	f.users[id] = u
	return u
}

func (f *fakeRepository) addLesson(id uint, status models.CatalogStatus) *models.Lesson {
	l := &models.Lesson{ID: id, Title: fmt.Sprintf("Lesson %d", id), StatusID: status}
	f.lessons[id] = l
	return l
}

func (f *fakeRepository) addExercise(id, lessonID uint, correct string, status models.CatalogStatus) *models.Exercise {
	e := &models.Exercise{ID: id, LessonID: lessonID, Title: fmt.Sprintf("Exercise %d", id), Type: models.ExerciseFillIn, CorrectAnswer: correct, StatusID: status}
	f.exercises[id] = e
	return e
}

func (f *fakeRepository) addLessonProgress(userID, lessonID uint, status models.ProgressStatus) {
	f.userLess[[2]uint{userID, lessonID}] = &models.UserLesson{ID: f.id(), UserID: userID, LessonID: lessonID, StatusID: status}
}

func (f *fakeRepository) addExerciseScore(userID, exerciseID uint, score float64) {
	f.userExer[[2]uint{userID, exerciseID}] = &models.UserExercise{ID: f.id(), UserID: userID, ExerciseID: exerciseID, StatusID: models.ProgressEnded, Score: score}
}

// ===== Repository =====

func (f *fakeRepository) Lesson() repositories.LessonRepository         { return fakeLessons{f} }
func (f *fakeRepository) Exercise() repositories.ExerciseRepository     { return fakeExercises{f} }
func (f *fakeRepository) Progress() repositories.ProgressRepository     { return fakeProgress{f} }
func (f *fakeRepository) User() repositories.UserRepository             { return fakeUsers{f} }
func (f *fakeRepository) Role() repositories.RoleRepository             { return fakeRoles{f} }
func (f *fakeRepository) Statistics() repositories.StatisticsRepository { return fakeStatistics{f} }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	f.mu.Lock()
	f.txCount++
	_, f.txHadDeadline = ctx.Deadline()
	f.mu.Unlock()
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== lessons =====

type fakeLessons struct{ f *fakeRepository }

func (r fakeLessons) Create(ctx context.Context, lesson *models.Lesson) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	lesson.ID = r.f.id()
	cp := *lesson
	r.f.lessons[lesson.ID] = &cp
	return nil
}

func (r fakeLessons) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	l, ok := r.f.lessons[id]
	if !ok {
		return nil, notFound("get lesson by id")
	}
	cp := *l
	return &cp, nil
}

func (r fakeLessons) Update(ctx context.Context, lesson *models.Lesson) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := *lesson
	r.f.lessons[lesson.ID] = &cp
	return nil
}

func (r fakeLessons) SetStatus(ctx context.Context, id uint, status models.CatalogStatus) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	l, ok := r.f.lessons[id]
	if !ok {
		return notFound("set lesson status")
	}
	l.StatusID = status
	return nil
}

func (r fakeLessons) ExistsActiveByTitle(ctx context.Context, title string, excludeID uint) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, l := range r.f.lessons {
		if l.Title == title && l.IsActive() && l.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeLessons) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Lesson
	for _, l := range r.f.lessons {
		if !l.IsActive() && !filters.Scope.IncludeInactive {
			continue
		}
		if filters.Title != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(filters.Title)) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Lesson) int { return cmp.Compare(a.ID, b.ID) })
	total := int64(len(out))
	return paginate(out, filters.Offset, filters.Limit), total, nil
}

// ===== exercises =====

type fakeExercises struct{ f *fakeRepository }

func (r fakeExercises) Create(ctx context.Context, exercise *models.Exercise) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	exercise.ID = r.f.id()
	cp := *exercise
	r.f.exercises[exercise.ID] = &cp
	return nil
}

func (r fakeExercises) CreateBatch(ctx context.Context, exercises []*models.Exercise) error {
	for _, e := range exercises {
		if err := r.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r fakeExercises) GetByID(ctx context.Context, id uint) (*models.Exercise, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	e, ok := r.f.exercises[id]
	if !ok {
		return nil, notFound("get exercise by id")
	}
	cp := *e
	return &cp, nil
}

func (r fakeExercises) Update(ctx context.Context, exercise *models.Exercise) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := *exercise
	r.f.exercises[exercise.ID] = &cp
	return nil
}

func (r fakeExercises) SetStatus(ctx context.Context, id uint, status models.CatalogStatus) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	e, ok := r.f.exercises[id]
	if !ok {
		return notFound("set exercise status")
	}
	e.StatusID = status
	return nil
}

func (r fakeExercises) List(ctx context.Context, filters repositories.ExerciseFilters) ([]*models.Exercise, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Exercise
	for _, e := range r.f.exercises {
		if !e.IsActive() && !filters.Scope.IncludeInactive {
			continue
		}
		if filters.LessonID != nil && e.LessonID != *filters.LessonID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Exercise) int { return cmp.Compare(a.ID, b.ID) })
	total := int64(len(out))
	return paginate(out, filters.Offset, filters.Limit), total, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// ===== progress =====

type fakeProgress struct{ f *fakeRepository }

func (r fakeProgress) FindLessonProgress(ctx context.Context, userID, lessonID uint, forUpdate bool) (*models.UserLesson, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if forUpdate {
		r.f.lockedRows++
	}
	rec, ok := r.f.userLess[[2]uint{userID, lessonID}]
	if !ok {
		return nil, notFound("find lesson progress")
	}
	cp := *rec
	return &cp, nil
}

func (r fakeProgress) SaveLessonProgress(ctx context.Context, record *models.UserLesson) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.failSave != nil {
		return r.f.failSave
	}
	key := [2]uint{record.UserID, record.LessonID}
	if record.ID == 0 {
		if _, exists := r.f.userLess[key]; exists {
			return duplicate("save lesson progress")
		}
		record.ID = r.f.id()
	}
	cp := *record
	r.f.userLess[key] = &cp
	return nil
}

func (r fakeProgress) ListLessonProgress(ctx context.Context, userID uint) ([]*models.UserLesson, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.UserLesson
	for _, rec := range r.f.userLess {
		if rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.UserLesson) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r fakeProgress) FindExerciseProgress(ctx context.Context, userID, exerciseID uint, forUpdate bool) (*models.UserExercise, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if forUpdate {
		r.f.lockedRows++
	}
	rec, ok := r.f.userExer[[2]uint{userID, exerciseID}]
	if !ok {
		return nil, notFound("find exercise progress")
	}
	cp := *rec
	return &cp, nil
}

func (r fakeProgress) SaveExerciseProgress(ctx context.Context, record *models.UserExercise) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.failSave != nil {
		return r.f.failSave
	}
	key := [2]uint{record.UserID, record.ExerciseID}
	if record.ID == 0 {
		if _, exists := r.f.userExer[key]; exists {
			return duplicate("save exercise progress")
		}
		record.ID = r.f.id()
	}
	cp := *record
	r.f.userExer[key] = &cp
	return nil
}

func (r fakeProgress) SumScoresByUser(ctx context.Context) ([]models.ScoreTotal, error) {
	out := r.f.scoreTotals()
	if hook := r.f.afterScoreSnapshot; hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeRepository) scoreTotals() []models.ScoreTotal {
	f.mu.Lock()
	defer f.mu.Unlock()
	sums := make(map[uint]float64)
	for _, rec := range f.userExer {
		if rec.DeletedDate == nil {
			sums[rec.UserID] += rec.Score
		}
	}
	out := make([]models.ScoreTotal, 0, len(sums))
	for userID, total := range sums {
		name := ""
		if u, ok := f.users[userID]; ok {
			name = u.Username
		}
		out = append(out, models.ScoreTotal{UserID: userID, Username: name, TotalScore: total})
	}
	// Map order stands in for the store's unspecified tie order
	return out
}

// ===== users =====

type fakeUsers struct{ f *fakeRepository }

func (r fakeUsers) Create(ctx context.Context, user *models.User) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return duplicate("create user")
		}
	}
	user.ID = r.f.id()
	if user.CreatedDate.IsZero() {
		user.CreatedDate = time.Now()
	}
	cp := *user
	r.f.users[user.ID] = &cp
	return nil
}

func (r fakeUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	u, ok := r.f.users[id]
	if !ok {
		return nil, notFound("get user by id")
	}
	cp := *u
	return &cp, nil
}

func (r fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("get user by username")
}

func (r fakeUsers) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeUsers) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeUsers) Update(ctx context.Context, user *models.User) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	u, ok := r.f.users[user.ID]
	if !ok {
		return notFound("update user")
	}
	u.Email = user.Email
	u.FullName = user.FullName
	u.PhoneNumber = user.PhoneNumber
	u.PasswordHash = user.PasswordHash
	u.UserGroupID = user.UserGroupID
	return nil
}

func (r fakeUsers) SetStatus(ctx context.Context, id uint, status models.UserStatus) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	u, ok := r.f.users[id]
	if !ok {
		return notFound("set user status")
	}
	u.StatusID = status
	if status == models.UserDisabled {
		now := time.Now()
		u.DeletedDate = &now
	} else {
		u.DeletedDate = nil
	}
	return nil
}

func (r fakeUsers) CountActiveByGroup(ctx context.Context, groupID int16) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for _, u := range r.f.users {
		if u.UserGroupID == groupID && u.StatusID == models.UserActive {
			n++
		}
	}
	return n, nil
}

func (r fakeUsers) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.User
	for _, u := range r.f.users {
		if u.StatusID != models.UserActive && !filters.IncludeDisabled {
			continue
		}
		if filters.GroupID != nil && u.UserGroupID != *filters.GroupID {
			continue
		}
		if q := strings.ToLower(filters.Query); q != "" &&
			!strings.Contains(strings.ToLower(u.Username), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) &&
			!strings.Contains(strings.ToLower(u.FullName), q) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.User) int { return cmp.Compare(a.ID, b.ID) })
	total := int64(len(out))
	return paginate(out, filters.Offset, filters.Limit), total, nil
}

// ===== roles =====

type fakeRoles struct{ f *fakeRepository }

func (r fakeRoles) Create(ctx context.Context, role *models.UserGroup) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, g := range r.f.roles {
		if g.Name == role.Name {
			return duplicate("create role")
		}
	}
	role.ID = int16(len(r.f.roles) + 1)
	cp := *role
	r.f.roles[role.ID] = &cp
	return nil
}

func (r fakeRoles) GetByID(ctx context.Context, id int16) (*models.UserGroup, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	g, ok := r.f.roles[id]
	if !ok {
		return nil, notFound("get role by id")
	}
	cp := *g
	return &cp, nil
}

func (r fakeRoles) ExistsByName(ctx context.Context, name string, excludeID int16) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, g := range r.f.roles {
		if g.Name == name && g.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeRoles) Update(ctx context.Context, role *models.UserGroup) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := *role
	r.f.roles[role.ID] = &cp
	return nil
}

func (r fakeRoles) SetStatus(ctx context.Context, id int16, status models.RoleStatus) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	g, ok := r.f.roles[id]
	if !ok {
		return notFound("set role status")
	}
	g.StatusID = status
	return nil
}

func (r fakeRoles) List(ctx context.Context, filters repositories.RoleFilters) ([]*models.UserGroup, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.UserGroup
	for _, g := range r.f.roles {
		if !g.IsActive() && !filters.IncludeInactive {
			continue
		}
		if filters.Query != "" && g.Name != filters.Query && g.Permission != filters.Query {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.UserGroup) int { return cmp.Compare(a.ID, b.ID) })
	total := int64(len(out))
	return paginate(out, filters.Offset, filters.Limit), total, nil
}

// ===== statistics =====

type fakeStatistics struct{ f *fakeRepository }

func (r fakeStatistics) CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for _, u := range r.f.users {
		if u.DeletedDate == nil && !u.CreatedDate.Before(from) && u.CreatedDate.Before(to) {
			n++
		}
	}
	return n, nil
}
