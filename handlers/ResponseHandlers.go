package handlers

import (
	"net/http"

	"fluxachat/models"
	"fluxachat/services"

	"github.com/gin-gonic/gin"
)

// RecordResponse ingests a supplier quote for an RFQ. Public endpoint: the
// RFQ UUID in the path is the supplier's credential.
// @Summary Record supplier response
// @Description Validates and stores a quote against the RFQ. A resubmission before expiry supersedes the previous quote.
// @Tags Responses
// @Accept json
// @Produce json
// @Param uuid path string true "RFQ UUID"
// @Param body body models.RecordResponseRequest true "Quote header and lines"
// @Success 201 {object} models.ResponseHeader
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfqs/{uuid}/response [post]
func RecordResponse(svc *services.IngestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RecordResponseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		header, err := svc.RecordResponse(c.Param("uuid"), &req, c.ClientIP())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, header)
	}
}

// RecordRejection ingests an explicit supplier refusal.
// @Summary Record supplier rejection
// @Description Terminates the RFQ as rejete with the given reason. A rejection counts as an answer in the supplier metrics.
// @Tags Responses
// @Accept json
// @Produce json
// @Param uuid path string true "RFQ UUID"
// @Param body body models.RecordRejectionRequest true "Reason and channel"
// @Success 200 {object} utils.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfqs/{uuid}/rejection [post]
func RecordRejection(svc *services.IngestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RecordRejectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if err := svc.RecordRejection(c.Param("uuid"), req.Motif, req.Canal, c.ClientIP()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Rejection recorded"})
	}
}
