package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewhub/internal/dto"
	"reviewhub/internal/permissions"
	"reviewhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockReviewService mocks the ReviewService interface
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error) {
	args := m.Called(ctx, titleID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedReviewResponse), args.Error(1)
}

func (m *MockReviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, titleID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, principal permissions.Principal, titleID int64, in dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, principal, titleID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, principal permissions.Principal, titleID, reviewID int64, in dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, principal, titleID, reviewID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, principal permissions.Principal, titleID, reviewID int64) error {
	args := m.Called(ctx, principal, titleID, reviewID)
	return args.Error(0)
}

func setupReviewRouter(svc service.ReviewService) *gin.Engine {
	router := setupRouter()
	group := router.Group("/titles")
	NewReviewHandler(svc).RegisterRoutes(group)
	return router
}

func TestListReviews_Success(t *testing.T) {
	mockSvc := new(MockReviewService)
	router := setupReviewRouter(mockSvc)

	mockSvc.On("ListByTitle", mock.Anything, int64(7), 1, 20).Return(dto.NewPaginatedReviewResponse(
		[]dto.ReviewResponse{{ID: 1, Author: "alice", Score: 9, Text: "great"}}, 1, 1, 20), nil)

	req, _ := http.NewRequest("GET", "/titles/7/reviews", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.PaginatedReviewResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response.Data, 1)
	assert.Equal(t, "alice", response.Data[0].Author)
}

func TestListReviews_TitleMissing(t *testing.T) {
	mockSvc := new(MockReviewService)
	router := setupReviewRouter(mockSvc)

	mockSvc.On("ListByTitle", mock.Anything, int64(404), 1, 20).Return(nil, service.ErrTitleNotFound)

	req, _ := http.NewRequest("GET", "/titles/404/reviews", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateReview_DuplicateReturns409(t *testing.T) {
	mockSvc := new(MockReviewService)
	router := setupReviewRouter(mockSvc)

	mockSvc.On("Create", mock.Anything, mock.Anything, int64(7), dto.CreateReviewDTO{Text: "again", Score: 8}).
		Return(nil, service.ErrReviewExists)

	w := postJSON(router, "/titles/7/reviews", dto.CreateReviewDTO{Text: "again", Score: 8})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateReview_ScoreOutOfRange(t *testing.T) {
	mockSvc := new(MockReviewService)
	router := setupReviewRouter(mockSvc)

	w := postJSON(router, "/titles/7/reviews", map[string]any{"text": "x", "score": 11})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReview_InvalidTitleID(t *testing.T) {
	mockSvc := new(MockReviewService)
	router := setupReviewRouter(mockSvc)

	w := postJSON(router, "/titles/abc/reviews", dto.CreateReviewDTO{Text: "x", Score: 5})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteReview_Forbidden(t *testing.T) {
	mockSvc := new(MockReviewService)
	router := setupReviewRouter(mockSvc)

	mockSvc.On("Delete", mock.Anything, mock.Anything, int64(7), int64(42)).Return(service.ErrForbidden)

	req, _ := http.NewRequest("DELETE", "/titles/7/reviews/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
