package handler

import (
	"fmt"
	"net/http"
	"sync"

	"atm-admin/internal/screens"
	"atm-admin/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// operatorPages - состояние экранов одного оператора: режимы редактирования
// и сообщение последней неудачной мутации.
type operatorPages struct {
	commissions  *screens.CommissionsPage
	operatorInfo *screens.RecordPage[screens.ContactInfo]
	terms        *screens.RecordPage[screens.TermsConditions]
}

// ScreensHandler обслуживает API экранов админки.
type ScreensHandler struct {
	src    screens.DataSource
	logger *zap.Logger

	mu    sync.Mutex
	pages map[uuid.UUID]*operatorPages
}

// NewScreensHandler создает обработчик экранов поверх источника данных src.
func NewScreensHandler(src screens.DataSource, logger *zap.Logger) *ScreensHandler {
	return &ScreensHandler{
		src:    src,
		logger: logger.Named("ScreensHandler"),
		pages:  make(map[uuid.UUID]*operatorPages),
	}
}

// RegisterRoutes регистрирует маршруты экранов. Группа должна быть защищена AuthMiddleware.
func (h *ScreensHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/commissions", h.getCommissions)
	g.POST("/commissions/:section/edit", h.setCommissionsEditing)
	g.PUT("/commissions/default", h.saveCommissionsDefault)
	g.PUT("/commissions/overrides", h.saveCommissionsOverrides)

	g.GET("/operator-info", func(c *gin.Context) {
		h.withPages(c, func(p *operatorPages) { loadRecord(c, p.operatorInfo, h.logger) })
	})
	g.PUT("/operator-info", func(c *gin.Context) {
		h.withPages(c, func(p *operatorPages) { saveRecord(c, p.operatorInfo, h.logger) })
	})
	g.GET("/terms-conditions", func(c *gin.Context) {
		h.withPages(c, func(p *operatorPages) { loadRecord(c, p.terms, h.logger) })
	})
	g.PUT("/terms-conditions", func(c *gin.Context) {
		h.withPages(c, func(p *operatorPages) { saveRecord(c, p.terms, h.logger) })
	})
}

// pagesFor возвращает состояние экранов оператора, создавая его при первом обращении.
func (h *ScreensHandler) pagesFor(userID uuid.UUID) *operatorPages {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.pages[userID]
	if !ok {
		log := h.logger.With(zap.String("userID", userID.String()))
		p = &operatorPages{
			commissions:  screens.NewCommissionsPage(h.src, log),
			operatorInfo: screens.NewOperatorInfoPage(h.src, log),
			terms:        screens.NewTermsConditionsPage(h.src, log),
		}
		h.pages[userID] = p
	}
	return p
}

func (h *ScreensHandler) withPages(c *gin.Context, fn func(p *operatorPages)) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		handleServiceError(c, fmt.Errorf("%w: operator is not identified", models.ErrUnauthorized), h.logger)
		return
	}
	fn(h.pagesFor(userID))
}

func (h *ScreensHandler) getCommissions(c *gin.Context) {
	h.withPages(c, func(p *operatorPages) {
		h.respondCommissions(c, p, http.StatusOK)
	})
}

type editingRequest struct {
	Editing *bool `json:"editing" binding:"required"`
}

func (h *ScreensHandler) setCommissionsEditing(c *gin.Context) {
	h.withPages(c, func(p *operatorPages) {
		var req editingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
			return
		}
		section := screens.Section(c.Param("section"))
		if err := p.commissions.SetEditing(section, *req.Editing); err != nil {
			handleServiceError(c, err, h.logger)
			return
		}
		h.respondCommissions(c, p, http.StatusOK)
	})
}

func (h *ScreensHandler) saveCommissionsDefault(c *gin.Context) {
	h.withPages(c, func(p *operatorPages) {
		var record screens.Commission
		if err := c.ShouldBindJSON(&record); err != nil {
			handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
			return
		}
		if err := p.commissions.SaveDefault(c.Request.Context(), record); err != nil {
			handleServiceError(c, err, h.logger)
			return
		}
		h.respondCommissions(c, p, http.StatusOK)
	})
}

type overridesRequest struct {
	Overrides []screens.Override `json:"overrides"`
}

func (h *ScreensHandler) saveCommissionsOverrides(c *gin.Context) {
	h.withPages(c, func(p *operatorPages) {
		var req overridesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
			return
		}
		if err := p.commissions.SaveOverrides(c.Request.Context(), req.Overrides); err != nil {
			handleServiceError(c, err, h.logger)
			return
		}
		h.respondCommissions(c, p, http.StatusOK)
	})
}

// respondCommissions перечитывает экран после изменения, как refetch после мутации.
func (h *ScreensHandler) respondCommissions(c *gin.Context, p *operatorPages, status int) {
	view, err := p.commissions.Load(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(status, view)
}

func loadRecord[T any](c *gin.Context, page *screens.RecordPage[T], logger *zap.Logger) {
	view, err := page.Load(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, logger)
		return
	}
	c.JSON(http.StatusOK, view)
}

func saveRecord[T any](c *gin.Context, page *screens.RecordPage[T], logger *zap.Logger) {
	var record T
	if err := c.ShouldBindJSON(&record); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), logger)
		return
	}
	if err := page.Save(c.Request.Context(), record); err != nil {
		handleServiceError(c, err, logger)
		return
	}
	loadRecord(c, page, logger)
}
