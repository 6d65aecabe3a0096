package graph

import (
	"context"
	"net/http"

	"atm-admin/internal/service"
	"atm-admin/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

// Request - тело POST /graphql.
type Request struct {
	Query         string         `json:"query" binding:"required"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Handler выполняет GraphQL-запросы.
type Handler struct {
	schema graphql.Schema
	logger *zap.Logger
}

// NewHandler создает обработчик со схемой поверх svc.
func NewHandler(svc service.ConfigService, logger *zap.Logger) (*Handler, error) {
	log := logger.Named("GraphQL")
	schema, err := NewSchema(svc, log)
	if err != nil {
		return nil, err
	}
	return &Handler{schema: schema, logger: log}, nil
}

// Execute выполняет запрос в контексте ctx.
func (h *Handler) Execute(ctx context.Context, req Request) *graphql.Result {
	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        withRequestData(ctx),
	})
	if result.HasErrors() {
		h.logger.Warn("GraphQL request finished with errors",
			zap.String("operation", req.OperationName),
			zap.Any("errors", result.Errors),
		)
	}
	return result
}

// ServeHTTP - gin-обработчик POST /graphql.
func (h *Handler) ServeHTTP(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid GraphQL request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid GraphQL request"})
		return
	}
	c.JSON(http.StatusOK, h.Execute(c.Request.Context(), req))
}
