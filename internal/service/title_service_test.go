package service

import (
	"context"
	"testing"
	"time"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/permissions"
	"reviewhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockCategoryRepository mocks the CategoryRepository interface
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error) {
	args := m.Called(ctx, search, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Category), args.Get(1).(int64), args.Error(2)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

// MockGenreRepository mocks the GenreRepository interface
type MockGenreRepository struct {
	mock.Mock
}

func (m *MockGenreRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error) {
	args := m.Called(ctx, search, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Genre), args.Get(1).(int64), args.Error(2)
}

func (m *MockGenreRepository) Create(ctx context.Context, genre *models.Genre) error {
	args := m.Called(ctx, genre)
	return args.Error(0)
}

func (m *MockGenreRepository) FindBySlug(ctx context.Context, slug string) (*models.Genre, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Genre), args.Error(1)
}

func (m *MockGenreRepository) FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	args := m.Called(ctx, slugs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Genre), args.Error(1)
}

func (m *MockGenreRepository) DeleteBySlug(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func newTitleServiceForTest(
	titleRepo *MockTitleRepository,
	categoryRepo *MockCategoryRepository,
	genreRepo *MockGenreRepository,
	reviewRepo *MockReviewRepository,
	ratings *MockRatingCache,
) TitleService {
	return NewTitleService(titleRepo, categoryRepo, genreRepo, reviewRepo, ratings, testLogger())
}

func adminPrincipal() permissions.Principal {
	return permissions.ForUser(&models.User{ID: "admin-1", Username: "admin", Role: models.RoleAdmin})
}

func TestGetTitle_RatingFromReviews(t *testing.T) {
	titleRepo := new(MockTitleRepository)
	reviewRepo := new(MockReviewRepository)
	ratings := new(MockRatingCache)
	svc := newTitleServiceForTest(titleRepo, new(MockCategoryRepository), new(MockGenreRepository), reviewRepo, ratings)

	titleRepo.On("FindByID", mock.Anything, int64(7)).Return(&models.Title{ID: 7, Name: "Some Title", Year: 1999}, nil)
	ratings.On("Get", mock.Anything, int64(7)).Return(nil, false, nil)
	mean := 7.5
	reviewRepo.On("AverageScoreByTitle", mock.Anything, int64(7)).Return(&mean, nil)
	ratings.On("Set", mock.Anything, int64(7), &mean).Return(nil)

	resp, err := svc.Get(context.Background(), 7)

	assert.NoError(t, err)
	assert.NotNil(t, resp.Rating)
	assert.Equal(t, 7.5, *resp.Rating)
}

func TestGetTitle_NoReviewsMeansNoRating(t *testing.T) {
	titleRepo := new(MockTitleRepository)
	reviewRepo := new(MockReviewRepository)
	ratings := new(MockRatingCache)
	svc := newTitleServiceForTest(titleRepo, new(MockCategoryRepository), new(MockGenreRepository), reviewRepo, ratings)

	titleRepo.On("FindByID", mock.Anything, int64(7)).Return(&models.Title{ID: 7, Name: "Unreviewed", Year: 2001}, nil)
	ratings.On("Get", mock.Anything, int64(7)).Return(nil, false, nil)
	reviewRepo.On("AverageScoreByTitle", mock.Anything, int64(7)).Return(nil, nil)
	ratings.On("Set", mock.Anything, int64(7), (*float64)(nil)).Return(nil)

	resp, err := svc.Get(context.Background(), 7)

	assert.NoError(t, err)
	assert.Nil(t, resp.Rating)
}

func TestGetTitle_CacheHitSkipsDatabase(t *testing.T) {
	titleRepo := new(MockTitleRepository)
	reviewRepo := new(MockReviewRepository)
	ratings := new(MockRatingCache)
	svc := newTitleServiceForTest(titleRepo, new(MockCategoryRepository), new(MockGenreRepository), reviewRepo, ratings)

	titleRepo.On("FindByID", mock.Anything, int64(7)).Return(&models.Title{ID: 7}, nil)
	cached := 6.0
	ratings.On("Get", mock.Anything, int64(7)).Return(&cached, true, nil)

	resp, err := svc.Get(context.Background(), 7)

	assert.NoError(t, err)
	assert.Equal(t, 6.0, *resp.Rating)
	reviewRepo.AssertNotCalled(t, "AverageScoreByTitle", mock.Anything, mock.Anything)
}

func TestGetTitle_CacheFailureFallsBackToDatabase(t *testing.T) {
	titleRepo := new(MockTitleRepository)
	reviewRepo := new(MockReviewRepository)
	ratings := new(MockRatingCache)
	svc := newTitleServiceForTest(titleRepo, new(MockCategoryRepository), new(MockGenreRepository), reviewRepo, ratings)

	titleRepo.On("FindByID", mock.Anything, int64(7)).Return(&models.Title{ID: 7}, nil)
	ratings.On("Get", mock.Anything, int64(7)).Return(nil, false, assert.AnError)
	mean := 4.5
	reviewRepo.On("AverageScoreByTitle", mock.Anything, int64(7)).Return(&mean, nil)
	ratings.On("Set", mock.Anything, int64(7), &mean).Return(assert.AnError)

	resp, err := svc.Get(context.Background(), 7)

	assert.NoError(t, err)
	assert.Equal(t, 4.5, *resp.Rating)
}

func TestCreateTitle_NonAdminForbidden(t *testing.T) {
	svc := newTitleServiceForTest(new(MockTitleRepository), new(MockCategoryRepository), new(MockGenreRepository), new(MockReviewRepository), new(MockRatingCache))

	user := permissions.ForUser(&models.User{ID: "u-1", Role: models.RoleUser})
	_, err := svc.Create(context.Background(), user, dto.CreateTitleDTO{Name: "Nope", Year: 2000})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateTitle_FutureYearRejected(t *testing.T) {
	svc := newTitleServiceForTest(new(MockTitleRepository), new(MockCategoryRepository), new(MockGenreRepository), new(MockReviewRepository), new(MockRatingCache))

	_, err := svc.Create(context.Background(), adminPrincipal(), dto.CreateTitleDTO{
		Name: "From The Future",
		Year: time.Now().Year() + 1,
	})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "year")
}

func TestCreateTitle_UnknownCategoryRejected(t *testing.T) {
	titleRepo := new(MockTitleRepository)
	categoryRepo := new(MockCategoryRepository)
	svc := newTitleServiceForTest(titleRepo, categoryRepo, new(MockGenreRepository), new(MockReviewRepository), new(MockRatingCache))

	categoryRepo.On("FindBySlug", mock.Anything, "no-such").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Create(context.Background(), adminPrincipal(), dto.CreateTitleDTO{
		Name:     "Orphan",
		Year:     1990,
		Category: "no-such",
	})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "category")
	titleRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateTitle_DetachCategory(t *testing.T) {
	titleRepo := new(MockTitleRepository)
	reviewRepo := new(MockReviewRepository)
	ratings := new(MockRatingCache)
	svc := newTitleServiceForTest(titleRepo, new(MockCategoryRepository), new(MockGenreRepository), reviewRepo, ratings)

	catID := int64(3)
	titleRepo.On("FindByID", mock.Anything, int64(7)).Return(&models.Title{ID: 7, Name: "Has Category", Year: 1980, CategoryID: &catID}, nil)
	titleRepo.On("Update", mock.Anything, mock.MatchedBy(func(title *models.Title) bool {
		return title.CategoryID == nil
	})).Return(nil)
	ratings.On("Get", mock.Anything, int64(7)).Return(nil, false, nil)
	reviewRepo.On("AverageScoreByTitle", mock.Anything, int64(7)).Return(nil, nil)
	ratings.On("Set", mock.Anything, int64(7), (*float64)(nil)).Return(nil)

	empty := ""
	resp, err := svc.Update(context.Background(), adminPrincipal(), 7, dto.UpdateTitleDTO{Category: &empty})

	assert.NoError(t, err)
	assert.Nil(t, resp.Category)
	titleRepo.AssertExpectations(t)
}

func TestListTitles_FilterPassedThrough(t *testing.T) {
	titleRepo := new(MockTitleRepository)
	svc := newTitleServiceForTest(titleRepo, new(MockCategoryRepository), new(MockGenreRepository), new(MockReviewRepository), new(MockRatingCache))

	filter := repository.TitleFilter{Name: "pulp", CategorySlug: "movie", Year: 1994}
	titleRepo.On("List", mock.Anything, filter, 1, 20).Return([]models.Title{}, int64(0), nil)

	resp, err := svc.List(context.Background(), filter, 1, 20)

	assert.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
	titleRepo.AssertExpectations(t)
}
