package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldmind/fieldmind-go-backend/internal/inspection"
	"github.com/fieldmind/fieldmind-go-backend/internal/store"
)

var svc *inspection.Service

// Init wires the inspection service into the handler package.
func Init(s *inspection.Service) {
	svc = s
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inspection.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Inspection not found"})
	case errors.Is(err, store.ErrInspectionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Inspection is already complete"})
	case errors.Is(err, store.ErrAlreadyCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "Inspection is already finalized"})
	case errors.Is(err, store.ErrNotFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": "Inspection must be finalized first"})
	case errors.Is(err, inspection.ErrAnchorFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Ledger anchoring failed, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func CreateInspection(c *gin.Context) {
	var req inspection.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	insp, err := svc.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, insp)
}

func ListInspections(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	inspections, err := svc.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  inspections,
		"total": len(inspections),
	})
}

func GetInspection(c *gin.Context) {
	insp, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, insp)
}

// RecordFinding classifies one component and appends the finding, returning
// the finding plus the updated tallies.
func RecordFinding(c *gin.Context) {
	var req inspection.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	finding, insp, err := svc.Record(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"finding":       finding,
		"go_count":      insp.GoCount,
		"caution_count": insp.CautionCount,
		"nogo_count":    insp.NoGoCount,
	})
}

// MarkGo records a GO finding without consulting the classifier.
func MarkGo(c *gin.Context) {
	var req inspection.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	finding, insp, err := svc.MarkGo(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"finding":       finding,
		"go_count":      insp.GoCount,
		"caution_count": insp.CautionCount,
		"nogo_count":    insp.NoGoCount,
	})
}

// CompleteInspection finalizes the inspection and returns the frozen
// verdict.
func CompleteInspection(c *gin.Context) {
	insp, err := svc.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":             insp.ID,
		"overall_status": insp.OverallStatus,
		"risk_score":     insp.RiskScore,
		"go_count":       insp.GoCount,
		"caution_count":  insp.CautionCount,
		"nogo_count":     insp.NoGoCount,
		"content_hash":   insp.ContentHash,
		"completed_at":   insp.CompletedAt,
	})
}

// AnchorInspection writes the completed inspection to the ledger. Calling
// it again returns the existing reference without a second ledger write.
func AnchorInspection(c *gin.Context) {
	insp, err := svc.Anchor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference":    insp.LedgerReference,
		"explorer_url": insp.LedgerURL,
		"anchored_at":  insp.AnchoredAt,
	})
}

// VerifyByReference is the public lookup by ledger reference or content
// hash. It only exposes the frozen summary, never raw findings.
func VerifyByReference(c *gin.Context) {
	insp, err := svc.VerifyByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"verified": false, "message": "Reference not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verified":       true,
		"report_number":  insp.ReportNumber,
		"machine_brand":  insp.MachineBrand,
		"machine_model":  insp.MachineModel,
		"serial_number":  insp.SerialNumber,
		"overall_status": insp.OverallStatus,
		"risk_score":     insp.RiskScore,
		"inspector_name": insp.InspectorName,
		"site_name":      insp.SiteName,
		"completed_at":   insp.CompletedAt,
		"explorer_url":   insp.LedgerURL,
	})
}
