package handlers

import (
	"net/http"
	"strings"

	"fluxachat/services"
	"fluxachat/utils"

	"github.com/gin-gonic/gin"
)

// statusForKind maps the domain error taxonomy to HTTP statuses.
func statusForKind(kind string) int {
	switch kind {
	case services.KindUnknownRFQ, services.KindUnknownQuoteLine:
		return http.StatusNotFound
	case services.KindInvalidPrice, services.KindInvalidQuantity:
		return http.StatusBadRequest
	case services.KindInvalidTransition, services.KindLateResponse,
		services.KindSelectionLocked, services.KindOrderGenerationAborted:
		return http.StatusConflict
	case services.KindBlacklistedSupplier:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError renders a DomainError with its mapped status, anything else as
// a 500.
func respondError(c *gin.Context, err error) {
	if de := services.AsDomainError(err); de != nil {
		c.JSON(statusForKind(de.Kind), gin.H{"error": de.Message, "kind": de.Kind,
			"rfq_uuid": de.RFQUUID, "numero_da": de.NumeroDA,
			"code_article": de.CodeArticle, "code_fournisseur": de.CodeFournisseur})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// RequireAuth validates the bearer token and stores the buyer identity on the
// context. Public supplier endpoints (tracking, response form) skip this.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		token, err := utils.ValidateJWT(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "details": err.Error()})
			return
		}
		c.Set("acteur", utils.EmailFromToken(token))
		c.Next()
	}
}

// actor returns the authenticated buyer identity, or "system" on public
// endpoints.
func actor(c *gin.Context) string {
	if v, ok := c.Get("acteur"); ok {
		if email, ok := v.(string); ok && email != "" {
			return email
		}
	}
	return "system"
}
