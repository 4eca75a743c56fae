package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"washdesk/internal/domain"
	customersvc "washdesk/internal/service/customer"
)

type customerHandlers struct {
	svc CustomerService
}

type registerRequest struct {
	Plate            string `json:"plate" binding:"required"`
	Phone            string `json:"phone"`
	CountPlan        string `json:"countPlan"`
	SubscriptionPlan string `json:"subscriptionPlan"`
	Blacklisted      bool   `json:"blacklisted"`
}

type visitRequest struct {
	Slot             string `json:"slot"`
	ConfirmDuplicate bool   `json:"confirmDuplicate"`
}

type planRequest struct {
	Plan string `json:"plan" binding:"required"`
}

type addSlotRequest struct {
	Kind string `json:"kind" binding:"required"`
	Plan string `json:"plan" binding:"required"`
}

// search handles GET /customers. ?plate= does an exact lookup returning a
// single status; ?q= runs the counter-style substring search.
func (h *customerHandlers) search(c *gin.Context) {
	if plate := c.Query("plate"); plate != "" {
		status, err := h.svc.Status(c.Request.Context(), plate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plate or q parameter required"})
		return
	}
	hits, err := h.svc.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	if hits == nil {
		hits = []domain.EntitlementStatus{}
	}
	c.JSON(http.StatusOK, gin.H{"results": hits, "total": len(hits)})
}

func (h *customerHandlers) status(c *gin.Context) {
	status, err := h.svc.Status(c.Request.Context(), c.Param("plate"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *customerHandlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.svc.Register(c.Request.Context(), customersvc.RegisterInput{
		Plate:            req.Plate,
		Phone:            req.Phone,
		CountPlan:        req.CountPlan,
		SubscriptionPlan: req.SubscriptionPlan,
		Blacklisted:      req.Blacklisted,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *customerHandlers) recordVisit(c *gin.Context) {
	// An empty body is a plain visit with no slot choice.
	var req visitRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := h.svc.RecordVisit(c.Request.Context(), c.Param("plate"), domain.SlotKind(req.Slot), req.ConfirmDuplicate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *customerHandlers) renew(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := h.svc.Renew(c.Request.Context(), c.Param("plate"), req.Plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *customerHandlers) recharge(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := h.svc.Recharge(c.Request.Context(), c.Param("plate"), req.Plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *customerHandlers) addSlot(c *gin.Context) {
	var req addSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := h.svc.AddSlot(c.Request.Context(), c.Param("plate"), domain.SlotKind(req.Kind), req.Plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// respondError maps the error taxonomy onto HTTP statuses. Same-day
// duplicates answer 409 with a confirm hint so the UI can re-ask.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
	case errors.Is(err, domain.ErrDuplicatePlate):
		c.JSON(http.StatusConflict, gin.H{"error": "plate already registered"})
	case errors.Is(err, domain.ErrAlreadyLoggedToday):
		c.JSON(http.StatusConflict, gin.H{"error": "visit already logged today", "confirmRequired": true})
	case errors.Is(err, domain.ErrEntitlementExhausted):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "entitlement exhausted"})
	case errors.Is(err, domain.ErrNoEntitlement):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no entitlement on record"})
	case errors.Is(err, domain.ErrSlotChoiceRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "both slots active, choose one"})
	case errors.Is(err, domain.ErrSlotOccupied):
		c.JSON(http.StatusConflict, gin.H{"error": "slot already present"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backing store unavailable"})
	case errors.Is(err, customersvc.ErrUnknownPlan), errors.Is(err, customersvc.ErrPlateRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
