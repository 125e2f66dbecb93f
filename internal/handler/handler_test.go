package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhudec/kniznica/internal/errs"
	"github.com/mhudec/kniznica/internal/handler"
	"github.com/mhudec/kniznica/internal/model"
	"github.com/mhudec/kniznica/pkg/validate"

	service_mocks "github.com/mhudec/kniznica/internal/handler/mocks"
)

const testBookUid = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"

func TestHandler_Reserve(t *testing.T) {
	t.Parallel()
	type input struct {
		bookUid  string
		username string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockReservationService, req input)

	reservationDate := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockReservationService, req input) {
				r.EXPECT().
					Reserve(context.Background(), req.username, req.bookUid).
					Return(model.Reservation{
						ReservationUid:  "84a7771c-87b5-4b52-9a11-14deff4d8b79",
						Username:        req.username,
						BookUid:         req.bookUid,
						ReservationDate: reservationDate,
					}, nil)
			},
			input: input{
				bookUid:  testBookUid,
				username: "alice",
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"reservationUid":"84a7771c-87b5-4b52-9a11-14deff4d8b79","username":"alice","bookUid":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","reservationDate":"2024-03-01T12:00:00Z"}`,
			},
			wantErr: false,
		},
		{
			name: "err. book not found",
			mockBehavior: func(r *service_mocks.MockReservationService, req input) {
				r.EXPECT().
					Reserve(context.Background(), req.username, req.bookUid).
					Return(model.Reservation{}, errs.ErrBookNotFound)
			},
			input: input{
				bookUid:  testBookUid,
				username: "alice",
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"book not found"}`,
			},
			wantErr: true,
		},
		{
			name: "err. no copies available",
			mockBehavior: func(r *service_mocks.MockReservationService, req input) {
				r.EXPECT().
					Reserve(context.Background(), req.username, req.bookUid).
					Return(model.Reservation{}, errs.ErrBookUnavailable)
			},
			input: input{
				bookUid:  testBookUid,
				username: "alice",
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"no copies available"}`,
			},
			wantErr: true,
		},
		{
			name: "err. already reserved",
			mockBehavior: func(r *service_mocks.MockReservationService, req input) {
				r.EXPECT().
					Reserve(context.Background(), req.username, req.bookUid).
					Return(model.Reservation{}, errs.ErrAlreadyReserved)
			},
			input: input{
				bookUid:  testBookUid,
				username: "alice",
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"book already reserved by user"}`,
			},
			wantErr: true,
		},
		{
			name:         "err. no username",
			mockBehavior: func(r *service_mocks.MockReservationService, req input) {},
			input: input{
				bookUid:  testBookUid,
				username: "",
			},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"no X-User-Name header: username is required"}`,
			},
			wantErr: true,
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockReservationService, req input) {
				r.EXPECT().
					Reserve(context.Background(), req.username, req.bookUid).
					Return(model.Reservation{}, errors.New("db internal"))
			},
			input: input{
				bookUid:  testBookUid,
				username: "alice",
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockReservationService(c)
			statsSvc := service_mocks.NewMockStatsService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, statsSvc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/books/:bookUid/reserve", h.Reserve)

			r := httptest.NewRequest(
				http.MethodPost, fmt.Sprintf("/books/%s/reserve", tt.input.bookUid), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.input.username != "" {
				r.Header.Set(handler.XUserName, tt.input.username)
			}
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Cancel(t *testing.T) {
	t.Parallel()
	type input struct {
		bookUid  string
		username string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockReservationService, req input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockReservationService, req input) {
				r.EXPECT().
					Cancel(context.Background(), req.username, req.bookUid).
					Return(nil)
			},
			input: input{
				bookUid:  testBookUid,
				username: "alice",
			},
			response: response{
				expectedCode: http.StatusNoContent,
				expectedBody: ``,
			},
			wantErr: false,
		},
		{
			name: "err. reservation not found",
			mockBehavior: func(r *service_mocks.MockReservationService, req input) {
				r.EXPECT().
					Cancel(context.Background(), req.username, req.bookUid).
					Return(errs.ErrReservationNotFound)
			},
			input: input{
				bookUid:  testBookUid,
				username: "alice",
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"reservation not found"}`,
			},
			wantErr: true,
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockReservationService, req input) {
				r.EXPECT().
					Cancel(context.Background(), req.username, req.bookUid).
					Return(errors.New("db internal"))
			},
			input: input{
				bookUid:  testBookUid,
				username: "alice",
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockReservationService(c)
			statsSvc := service_mocks.NewMockStatsService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, statsSvc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.DELETE("/books/:bookUid/reserve", h.Cancel)

			r := httptest.NewRequest(
				http.MethodDelete, fmt.Sprintf("/books/%s/reserve", tt.input.bookUid), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.input.username != "" {
				r.Header.Set(handler.XUserName, tt.input.username)
			}
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetReservations(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockReservationService)

	reservationDate := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		username     string
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					ListUserReservations(context.Background(), "alice").
					Return([]model.UserReservation{
						{
							ReservationUid:  "84a7771c-87b5-4b52-9a11-14deff4d8b79",
							BookUid:         testBookUid,
							Title:           "Sto rokov samoty",
							Author:          "Gabriel García Márquez",
							ISBN:            "978-0-06-088328-7",
							ReservationDate: reservationDate,
						},
					}, nil)
			},
			username: "alice",
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `[{"reservationUid":"84a7771c-87b5-4b52-9a11-14deff4d8b79","bookUid":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","title":"Sto rokov samoty","author":"Gabriel García Márquez","isbn":"978-0-06-088328-7","reservationDate":"2024-03-02T09:30:00Z"}]`,
			},
			wantErr: false,
		},
		{
			name:         "err. no username",
			mockBehavior: func(r *service_mocks.MockReservationService) {},
			username:     "",
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"no X-User-Name header: username is required"}`,
			},
			wantErr: true,
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					ListUserReservations(context.Background(), "alice").
					Return(nil, errors.New("db internal"))
			},
			username: "alice",
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockReservationService(c)
			statsSvc := service_mocks.NewMockStatsService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, statsSvc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.GET("/reservations", h.GetReservations)

			r := httptest.NewRequest(http.MethodGet, "/reservations", http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.username != "" {
				r.Header.Set(handler.XUserName, tt.username)
			}
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetBook(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockReservationService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		bookUid      string
		expectedCode int
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					GetBook(context.Background(), testBookUid).
					Return(model.Book{
						BookUid:         testBookUid,
						Title:           "Sto rokov samoty",
						Author:          "Gabriel García Márquez",
						ISBN:            "978-0-06-088328-7",
						TotalCopies:     3,
						AvailableCopies: 1,
					}, nil)
			},
			bookUid:      testBookUid,
			expectedCode: http.StatusOK,
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					GetBook(context.Background(), testBookUid).
					Return(model.Book{}, errs.ErrBookNotFound)
			},
			bookUid:      testBookUid,
			expectedCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockReservationService(c)
			statsSvc := service_mocks.NewMockStatsService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, statsSvc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.GET("/books/:bookUid", h.GetBook)

			r := httptest.NewRequest(http.MethodGet, "/books/"+tt.bookUid, http.NoBody)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
