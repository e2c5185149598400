package sessions

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"actionplan-backend/internal/findings"
	"actionplan-backend/internal/guide"
	"actionplan-backend/internal/plans"
	"actionplan-backend/internal/shared/server/middleware"
	"actionplan-backend/internal/shared/server/respond"
	"actionplan-backend/internal/workflow"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
	// GenerateLimit guards the blocking answers route; nil disables it.
	GenerateLimit gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, generateLimit gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, GenerateLimit: generateLimit}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions/:sessionId", h.get)
	rg.DELETE("/sessions/:sessionId", h.delete)
	rg.PUT("/sessions/:sessionId/credential", h.setCredential)
	rg.POST("/sessions/:sessionId/plan", h.uploadPlan)
	rg.POST("/sessions/:sessionId/plan/reparse", h.reparsePlan)
	rg.GET("/sessions/:sessionId/items", h.listItems)
	rg.GET("/sessions/:sessionId/items/:index", h.getItem)
	rg.POST("/sessions/:sessionId/items/:index/trigger", h.trigger)

	answers := []gin.HandlerFunc{}
	if h.GenerateLimit != nil {
		answers = append(answers, h.GenerateLimit)
	}
	answers = append(answers, h.submit)
	rg.POST("/sessions/:sessionId/items/:index/answers", answers...)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	session, err := h.Svc.Create(c.Request.Context(), CreateInput{APIKey: req.APIKey, Locale: req.Locale})
	if err != nil {
		var loadErr *guide.LoadError
		switch {
		case errors.As(err, &loadErr):
			respond.Error(c, http.StatusServiceUnavailable, "guide_unavailable", err.Error(), gin.H{"missing": loadErr.Missing})
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "failed to create session", nil)
		}
		return
	}
	c.Set(middleware.SessionIDKey, session.ID)
	respond.JSON(c, http.StatusCreated, h.toSessionResponse(session))
}

func (h *Handler) get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	respond.OK(c, h.toSessionResponse(session))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Param("sessionId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) setCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := h.Svc.SetCredential(c.Param("sessionId"), req.APIKey); err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"hasCredential": true})
}

func (h *Handler) uploadPlan(c *gin.Context) {
	sessionID := c.Param("sessionId")
	c.Set(middleware.SessionIDKey, sessionID)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	plan, err := h.Svc.UploadPlan(c.Request.Context(), sessionID, fileHeader.Filename, file)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondPlan(c, http.StatusCreated, sessionID, plan)
}

func (h *Handler) reparsePlan(c *gin.Context) {
	sessionID := c.Param("sessionId")
	c.Set(middleware.SessionIDKey, sessionID)

	var req reparseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HeaderRow == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "headerRow is required", nil)
		return
	}
	plan, err := h.Svc.ReparsePlan(c.Request.Context(), sessionID, findings.Options{HeaderRow: *req.HeaderRow, Sheet: req.Sheet})
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondPlan(c, http.StatusOK, sessionID, plan)
}

func (h *Handler) listItems(c *gin.Context) {
	sessionID := c.Param("sessionId")
	c.Set(middleware.SessionIDKey, sessionID)
	items, err := h.Svc.Items(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) getItem(c *gin.Context) {
	sessionID, index, ok := h.itemParams(c)
	if !ok {
		return
	}
	item, err := h.Svc.Item(c.Request.Context(), sessionID, index)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, item)
}

func (h *Handler) trigger(c *gin.Context) {
	sessionID, index, ok := h.itemParams(c)
	if !ok {
		return
	}
	item, err := h.Svc.Trigger(workflow.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c)), sessionID, index)
	if err != nil {
		h.writeItemError(c, item, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, fmt.Sprintf("->%s", item.State.Status))
	respond.OK(c, item)
}

func (h *Handler) submit(c *gin.Context) {
	sessionID, index, ok := h.itemParams(c)
	if !ok {
		return
	}
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Answers == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "answers are required", nil)
		return
	}

	item, err := h.Svc.Submit(workflow.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c)), sessionID, index, req.Answers)
	if err != nil {
		h.writeItemError(c, item, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, fmt.Sprintf("->%s", item.State.Status))
	respond.OK(c, item)
}

func (h *Handler) respondPlan(c *gin.Context, status int, sessionID string, plan plans.Plan) {
	items, err := h.Svc.Items(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.JSON(c, status, planUploadResponse{Plan: toPlanResponse(plan), Items: items})
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	sessionID := c.Param("sessionId")
	c.Set(middleware.SessionIDKey, sessionID)
	session, err := h.Svc.Get(sessionID)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) itemParams(c *gin.Context) (string, int, bool) {
	sessionID := c.Param("sessionId")
	c.Set(middleware.SessionIDKey, sessionID)
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "index must be an integer", nil)
		return "", 0, false
	}
	c.Set(middleware.FindingIndexKey, index)
	return sessionID, index, true
}

func (h *Handler) writeItemError(c *gin.Context, item Item, err error) {
	var stepErr *workflow.StepError
	if !errors.As(err, &stepErr) {
		h.writeError(c, err)
		return
	}
	if item.State.Status != "" {
		c.Set(middleware.StatusTransitionKey, fmt.Sprintf("->%s", item.State.Status))
	}
	switch stepErr.Code {
	case workflow.ErrorCodeLookupNotFound:
		respond.Error(c, http.StatusNotFound, "lookup_not_found", err.Error(), item)
	case workflow.ErrorCodeInvalidState:
		respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), item)
	case workflow.ErrorCodeInvalidAnswers:
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), item)
	case workflow.ErrorCodeMissingCredential:
		respond.Error(c, http.StatusBadRequest, "missing_credential", err.Error(), item)
	case workflow.ErrorCodeBackendTimeout:
		respond.Error(c, http.StatusGatewayTimeout, "backend_timeout", err.Error(), item)
	default:
		respond.Error(c, http.StatusBadGateway, "backend_error", err.Error(), item)
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var loadErr *findings.LoadError
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "session_not_found", err.Error(), nil)
	case errors.Is(err, ErrPlanRequired):
		respond.Error(c, http.StatusConflict, "plan_required", err.Error(), nil)
	case errors.Is(err, workflow.ErrUnknownFinding):
		respond.Error(c, http.StatusNotFound, "finding_not_found", err.Error(), nil)
	case errors.As(err, &loadErr):
		respond.Error(c, http.StatusUnprocessableEntity, "load_error", err.Error(), gin.H{"missing": loadErr.Missing})
	case errors.Is(err, ErrInvalidInput), errors.Is(err, plans.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, plans.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "plan_not_found", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "unexpected error", nil)
	}
}

func (h *Handler) toSessionResponse(session *Session) sessionResponse {
	out := sessionResponse{
		ID:            session.ID,
		Locale:        session.Locale,
		CreatedAt:     session.CreatedAt,
		HasCredential: h.Svc.HasCredential(session),
		Guide:         guideResponse{Source: session.Guide.Source(), Rows: session.Guide.Len()},
	}
	if plan, ok := session.Plan(); ok {
		p := toPlanResponse(plan)
		out.Plan = &p
	}
	return out
}
