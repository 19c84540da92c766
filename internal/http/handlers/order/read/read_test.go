package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		orderID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "успешное чтение заказа",
			orderID: "F3D2C1B0",
			setupMock: func(m *MockService) {
				order := &models.Order{
					ID:        "F3D2C1B0",
					PackageID: "a1",
					Status:    models.StatusConfirmed,
					Currency:  "IDR",
				}
				m.On("GetOrder", mock.Anything, "F3D2C1B0").Return(order, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"package_id":"a1"`,
		},
		{
			name:    "заказ не найден",
			orderID: "MISSING1",
			setupMock: func(m *MockService) {
				m.On("GetOrder", mock.Anything, "MISSING1").Return(nil, apperrors.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"order not found"}`,
		},
		{
			name:    "ошибка сервиса чтения",
			orderID: "F3D2C1B0",
			setupMock: func(m *MockService) {
				m.On("GetOrder", mock.Anything, "F3D2C1B0").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not read order"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/orders/"+tt.orderID, nil)
			// Устанавливаем URL params с помощью роутера chi
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.orderID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
