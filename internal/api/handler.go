// Package api exposes the explain service over a gin JSON API.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insightminer/app"
	"insightminer/domain/core"
	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/internal"
	"insightminer/internal/errors"
)

// Handler serves the explain endpoints
type Handler struct {
	service *app.ExplainService
	logger  *internal.Logger
}

// NewHandler creates a new API handler
func NewHandler(service *app.ExplainService, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{service: service, logger: logger.Named("api")}
}

// CreateSessionRequest declares a dataset and its fields
type CreateSessionRequest struct {
	Source     string        `json:"source"`
	Dimensions []string      `json:"dimensions"`
	Measures   []string      `json:"measures"`
	Dataset    []dataset.Row `json:"dataset" binding:"required"`
}

// Register mounts the routes on r
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/explain", h.Explain)
	v1.GET("/sessions", h.ListSessions)
	v1.POST("/sessions", h.CreateSession)
	v1.POST("/sessions/:id/explain", h.ExplainSession)
	v1.GET("/sessions/:id/fields", h.SessionFields)
	v1.DELETE("/sessions/:id", h.CloseSession)
}

// Explain answers a stateless explain request. Failures yield an empty
// response with status 200.
func (h *Handler) Explain(c *gin.Context) {
	var req insight.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("explain: malformed request: %v", err)
		c.JSON(http.StatusOK, insight.EmptyResponse())
		return
	}
	c.JSON(http.StatusOK, h.service.Explain(c.Request.Context(), req))
}

// ListSessions lists registered sessions
func (h *Handler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.service.Sessions()})
}

// CreateSession builds an engine over the posted dataset
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errors.InvalidInput(err.Error()))
		return
	}
	source := req.Source
	if source == "" {
		source = "api"
	}
	info, err := h.service.CreateSession(c.Request.Context(), req.Dataset, source, req.Dimensions, req.Measures)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

// ExplainSession explains a view on a session. A request superseded by a
// newer one on the same session answers 409.
func (h *Handler) ExplainSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req insight.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errors.InvalidInput(err.Error()))
		return
	}
	resp, err := h.service.ExplainSession(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SessionFields returns the field summary, clusters and subspaces of a session
func (h *Handler) SessionFields(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	s, err := h.service.Session(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	fields, err := s.Fields()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":   s.Info(),
		"fields":    fields,
		"subspaces": s.Subspaces(),
	})
}

// CloseSession discards a session
func (h *Handler) CloseSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.service.CloseSession(id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) sessionID(c *gin.Context) (core.SessionID, bool) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		h.writeError(c, errors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

// writeError maps error codes to status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeInvalidInput, errors.CodeValidationError:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeSuperseded:
		status = http.StatusConflict
	case errors.CodeEngineFault:
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// NewRouter returns a gin engine serving the API under prefix
func NewRouter(h *Handler, prefix string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r.Group(prefix))
	return r
}
