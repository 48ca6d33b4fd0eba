package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/internal/application"
	"github.com/oksasatya/uptrade-api/internal/interface/middleware"
	"github.com/oksasatya/uptrade-api/pkg/response"
	"github.com/oksasatya/uptrade-api/pkg/validation"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// statusFor is the single mapping from service error kinds to HTTP status codes.
func statusFor(e *application.AppError) int {
	switch e.Kind {
	case application.KindValidation:
		return http.StatusBadRequest
	case application.KindAuth:
		return http.StatusUnauthorized
	case application.KindForbidden:
		return http.StatusForbidden
	case application.KindNotFound:
		return http.StatusNotFound
	case application.KindConflict:
		if e.Code == application.CodeDuplicateEmail {
			return http.StatusBadRequest
		}
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError translates any service error into a status and {error, code} body.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var appErr *application.AppError
	if !errors.As(err, &appErr) {
		appErr = &application.AppError{Kind: application.KindInternal, Code: application.CodeInternal, Message: "internal error", Err: err}
	}
	status := statusFor(appErr)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.CtxRequestIDKey),
			"path":       c.FullPath(),
			"code":       appErr.Code,
		}).WithError(err).Error("request failed")
	}
	response.Error(c, status, appErr.Code, appErr.Message, appErr.Details)
}

func bindError(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, application.CodeInvalidInput, "invalid payload", validation.ToDetails(err))
}

// pageParams holds the paging query. Paged is false when neither page nor limit
// was supplied, in which case the listing is returned as a bare array.
type pageParams struct {
	Paged bool
	Page  int
	Limit int
}

func (p pageParams) Offset() int { return (p.Page - 1) * p.Limit }

// parsePage reads ?page and ?limit. Bad values fall back to defaults and limit
// is capped.
func parsePage(c *gin.Context) pageParams {
	rawPage, hasPage := c.GetQuery("page")
	rawLimit, hasLimit := c.GetQuery("limit")
	if !hasPage && !hasLimit {
		return pageParams{}
	}
	p := pageParams{Paged: true, Page: 1, Limit: defaultPageLimit}
	if n, err := strconv.Atoi(rawPage); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(rawLimit); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

// writeList emits a bare array for unpaged requests and the paging envelope otherwise.
func writeList[T any](c *gin.Context, p pageParams, items []T, total int) {
	if !p.Paged {
		if items == nil {
			items = []T{}
		}
		response.JSON(c, http.StatusOK, items)
		return
	}
	response.JSON(c, http.StatusOK, response.NewPage(items, p.Page, p.Limit, total))
}

// pathID returns the :id route param or writes a 400.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, http.StatusBadRequest, application.CodeInvalidInput, "missing id", nil)
		return "", false
	}
	return id, true
}
