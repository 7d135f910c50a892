package handlers

import (
	"fmt"
	"net/http"

	"fluxachat/config"
	"fluxachat/services"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// RFQQRCode renders the public response link of an RFQ as a QR code PNG.
// @Summary RFQ response link QR code
// @Description Returns a PNG QR code pointing at the supplier-facing response form for the RFQ.
// @Tags RFQs
// @Produce png
// @Param uuid path string true "RFQ UUID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfqs/{uuid}/qrcode [get]
func RFQQRCode(store services.RFQStore, cfg *config.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfq, err := store.GetRFQByUUID(c.Param("uuid"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		link := fmt.Sprintf("%s/%s", cfg.GetString(config.KeyPublicFormBaseURL), rfq.UUID)
		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode QR code", "details": err.Error()})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}
