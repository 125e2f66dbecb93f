package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mhudec/kniznica/internal/errs"
	"github.com/mhudec/kniznica/internal/model"
	"github.com/mhudec/kniznica/pkg/validate"
)

type Handler struct {
	reservationSvc ReservationService
	statsSvc       StatsService
	log            *zap.Logger
}

func New(reservationSvc ReservationService, statsSvc StatsService, log *zap.Logger) *Handler {
	return &Handler{
		reservationSvc: reservationSvc,
		statsSvc:       statsSvc,
		log:            log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", newRateLimiterMW(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()

	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(requestLoggerConfig()),
		middleware.RequestID(),
		newRateLimiterMW(apiRPS),
	)

	api.GET("/books", h.ListBooks)
	api.GET("/books/:bookUid", h.GetBook)
	api.POST("/books/:bookUid/reserve", h.Reserve)
	api.DELETE("/books/:bookUid/reserve", h.Cancel)
	api.GET("/books/:bookUid/reservation", h.GetReservation)
	api.GET("/reservations", h.GetReservations)
	api.GET("/stats", h.GetStats)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Reserve(c echo.Context) error {
	userName, err := getUserName(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	bookUid := c.Param("bookUid")
	if bookUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookUid is empty")
	}

	ctx := c.Request().Context()
	res, err := h.reservationSvc.Reserve(ctx, userName, bookUid)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrBookNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, errs.ErrAlreadyReserved), errors.Is(err, errs.ErrBookUnavailable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Cancel(c echo.Context) error {
	userName, err := getUserName(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	bookUid := c.Param("bookUid")
	if bookUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookUid is empty")
	}

	ctx := c.Request().Context()
	if err := h.reservationSvc.Cancel(ctx, userName, bookUid); err != nil {
		if errors.Is(err, errs.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetReservation(c echo.Context) error {
	userName, err := getUserName(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	bookUid := c.Param("bookUid")
	if bookUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookUid is empty")
	}

	ctx := c.Request().Context()
	res, err := h.reservationSvc.GetReservation(ctx, userName, bookUid)
	if err != nil {
		if errors.Is(err, errs.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetReservations(c echo.Context) error {
	userName, err := getUserName(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	ctx := c.Request().Context()
	items, err := h.reservationSvc.ListUserReservations(ctx, userName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListBooks(c echo.Context) error {
	var req model.ListBooksRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	books, err := h.reservationSvc.ListBooks(ctx, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookUid := c.Param("bookUid")
	if bookUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookUid is empty")
	}

	ctx := c.Request().Context()
	book, err := h.reservationSvc.GetBook(ctx, bookUid)
	if err != nil {
		if errors.Is(err, errs.ErrBookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, book)
}

func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.statsSvc.GetStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
