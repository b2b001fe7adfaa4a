package handlers

import (
	"net/http"
	"strings"

	requestRepo "ecocycle/database/repository/request"
	"ecocycle/models"
	"ecocycle/services/collection"

	"github.com/gin-gonic/gin"
)

// CollectionHandler exposes the request lifecycle over HTTP. The acting
// identity comes from the auth middleware ("actorID"); ownership checks
// against it live in the service.
type CollectionHandler struct {
	Svc collection.CollectionService
}

func NewCollectionHandler(svc collection.CollectionService) *CollectionHandler {
	return &CollectionHandler{Svc: svc}
}

// SubmitRequest creates a new pending collection request for the customer.
func (h *CollectionHandler) SubmitRequest(c *gin.Context) {
	var input collection.SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	input.CustomerID = c.GetString("actorID")

	req, err := h.Svc.SubmitRequest(c, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

// ListPending returns claimable requests, optionally filtered by category and
// priority.
func (h *CollectionHandler) ListPending(c *gin.Context) {
	filter := requestRepo.PendingFilter{
		Category: c.Query("category"),
		Priority: c.Query("priority"),
	}
	requests, err := h.Svc.ListPending(c, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if requests == nil {
		requests = []models.CollectionRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListMine returns the authenticated collector's own requests. A
// comma-separated "status" query narrows the listing; without it the active
// set is returned.
func (h *CollectionHandler) ListMine(c *gin.Context) {
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	requests, err := h.Svc.ListByCollector(c, c.GetString("actorID"), statuses)
	if err != nil {
		respondError(c, err)
		return
	}
	if requests == nil {
		requests = []models.CollectionRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetRequest returns a single request by id.
func (h *CollectionHandler) GetRequest(c *gin.Context) {
	req, err := h.Svc.GetRequest(c, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// GetAuditTrail returns the transition history of a request.
func (h *CollectionHandler) GetAuditTrail(c *gin.Context) {
	trail, err := h.Svc.GetAuditTrail(c, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if trail == nil {
		trail = []models.AuditEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"audit": trail})
}

// Claim exclusively assigns the request to the authenticated collector.
func (h *CollectionHandler) Claim(c *gin.Context) {
	req, err := h.Svc.Claim(c, c.GetString("actorID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// AssignCenter binds a recycling center to the collector's claimed request.
func (h *CollectionHandler) AssignCenter(c *gin.Context) {
	var input struct {
		CenterID string `json:"center_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := h.Svc.AssignCenter(c, c.GetString("actorID"), c.Param("id"), input.CenterID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "recycling center assigned"})
}

// ListEligibleCenters lists active centers accepting the request's categories.
func (h *CollectionHandler) ListEligibleCenters(c *gin.Context) {
	centers, err := h.Svc.ListEligibleCenters(c, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if centers == nil {
		centers = []models.RecyclingCenter{}
	}
	c.JSON(http.StatusOK, gin.H{"centers": centers})
}

// Start moves the collector's assigned request into collection.
func (h *CollectionHandler) Start(c *gin.Context) {
	if err := h.Svc.Start(c, c.GetString("actorID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusInProgress})
}

// Complete attaches evidence and marks the collection finished.
func (h *CollectionHandler) Complete(c *gin.Context) {
	var input struct {
		EvidenceRefs []string `json:"evidence_refs" binding:"required"`
		Notes        string   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := h.Svc.CompleteWithEvidence(c, c.GetString("actorID"), c.Param("id"), input.EvidenceRefs, input.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusCompleted})
}

// ReportIssue parks the request for an admin decision.
func (h *CollectionHandler) ReportIssue(c *gin.Context) {
	var input struct {
		Type        string `json:"type" binding:"required"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	issue := models.IssueReport{
		Type:        input.Type,
		Severity:    input.Severity,
		Description: input.Description,
	}
	if err := h.Svc.ReportIssue(c, c.GetString("actorID"), c.Param("id"), issue); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusIssueReported})
}

// ResolveIssue applies the admin decision to a parked request.
func (h *CollectionHandler) ResolveIssue(c *gin.Context) {
	var input struct {
		Resume bool   `json:"resume"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := h.Svc.ResolveIssue(c, c.GetString("actorID"), c.Param("id"), input.Resume, input.Notes); err != nil {
		respondError(c, err)
		return
	}
	status := models.StatusCancelled
	if input.Resume {
		status = models.StatusAssigned
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Deliver records the hand-off to the recycling center and the revenue split.
func (h *CollectionHandler) Deliver(c *gin.Context) {
	if err := h.Svc.Deliver(c, c.GetString("actorID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusDelivered})
}

// Confirm is the recycling center's receipt confirmation; it settles the
// collector's commission.
func (h *CollectionHandler) Confirm(c *gin.Context) {
	if err := h.Svc.Confirm(c, c.GetString("actorID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusConfirmed})
}

// Cancel terminates a request before completion.
func (h *CollectionHandler) Cancel(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)
	if err := h.Svc.Cancel(c, c.GetString("actorID"), c.Param("id"), input.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusCancelled})
}

// Reschedule moves the pickup schedule of a non-terminal request.
func (h *CollectionHandler) Reschedule(c *gin.Context) {
	var input struct {
		ScheduledDate string `json:"scheduled_date" binding:"required"`
		ScheduledTime string `json:"scheduled_time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req, err := h.Svc.Reschedule(c, c.GetString("actorID"), c.Param("id"), input.ScheduledDate, input.ScheduledTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}
