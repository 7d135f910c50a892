package handlers

import (
	"net/http"

	"fluxachat/services"

	"github.com/gin-gonic/gin"
)

// transparentGIF is a 1x1 transparent pixel served on email open tracking.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3B,
}

// TrackOpen records the email-open event and serves the pixel. Public, no
// auth: the URL lives inside the supplier's email. Always returns the pixel,
// even for unknown or terminal RFQs, so mail clients never see an error.
// @Summary Email open tracking pixel
// @Tags Tracking
// @Produce gif
// @Param uuid path string true "RFQ UUID"
// @Success 200 {file} binary
// @Router /api/track/open/{uuid} [get]
func TrackOpen(lifecycle *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Errors deliberately swallowed; tracking must never break mail
		// rendering.
		_ = lifecycle.RecordOpen(c.Param("uuid"), c.ClientIP())
		c.Data(http.StatusOK, "image/gif", transparentGIF)
	}
}

// TrackClick records the form-link click and redirects to the public form.
// @Summary Form link click tracking
// @Tags Tracking
// @Param uuid path string true "RFQ UUID"
// @Success 302
// @Router /api/track/click/{uuid} [get]
func TrackClick(lifecycle *services.LifecycleService, formBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")
		_ = lifecycle.RecordClick(uuid, c.ClientIP())
		c.Redirect(http.StatusFound, formBaseURL+"/"+uuid)
	}
}
