package handler

import (
	"errors"
	"net/http"

	"atm-admin/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError переводит ошибку контроллера экрана в HTTP-ответ.
func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	status := http.StatusInternalServerError
	msg := "Internal server error"

	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrDuplicateOverride), errors.Is(err, models.ErrBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrEditConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, models.ErrForbidden):
		status, msg = http.StatusForbidden, "Forbidden"
	case errors.Is(err, models.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrDataSource):
		status, msg = http.StatusBadGateway, err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		logger.Warn("Request rejected", zap.String("path", c.Request.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg})
}
