package handlers

import (
	"database/sql"
	"net/http"

	"fluxachat/models"
	"fluxachat/services"

	"github.com/gin-gonic/gin"
)

// GetComparison returns the scored offer rollup for one (numero_da,
// code_article) pair.
// @Summary Get comparison
// @Description Aggregates every received offer for the pair, scores them and names the recommended supplier. Blacklisted suppliers stay listed but carry no score.
// @Tags Comparisons
// @Produce json
// @Param numero_da query string true "DA number"
// @Param code_article query string true "Article code"
// @Success 200 {object} models.Comparison
// @Failure 400 {object} models.ErrorResponse
// @Router /api/comparisons [get]
func GetComparison(svc *services.ComparisonService) gin.HandlerFunc {
	return func(c *gin.Context) {
		numeroDA := c.Query("numero_da")
		codeArticle := c.Query("code_article")
		if numeroDA == "" || codeArticle == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "numero_da and code_article query parameters are required"})
			return
		}
		cmp, err := svc.GetComparison(numeroDA, codeArticle)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cmp)
	}
}

// DecideComparison records the buyer verdict on the comparison of one pair.
// @Summary Decide comparison
// @Description Validates or rejects the offer comparison for the (numero_da, code_article) pair. A decided pair cannot be decided again.
// @Tags Comparisons
// @Accept json
// @Produce json
// @Param body body models.DecideComparisonRequest true "Pair and verdict"
// @Success 200 {object} models.Decision
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/comparisons/decision [post]
func DecideComparison(svc *services.ComparisonService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DecideComparisonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		dec, err := svc.Decide(req.NumeroDA, req.CodeArticle, req.Statut, req.Commentaire, actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dec)
	}
}

// ComparisonDashboard summarizes the consultation pipeline per DA.
// @Summary Comparison dashboard
// @Description Per-DA rollup of article lines, RFQs sent, responses received and selections made.
// @Tags Comparisons
// @Produce json
// @Success 200 {array} object
// @Failure 500 {object} models.ErrorResponse
// @Router /api/comparisons/dashboard [get]
func ComparisonDashboard(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT da.numero_da, da.statut, da.priorite,
			       COUNT(DISTINCT da.code_article) AS nb_articles,
			       COUNT(DISTINCT lc.rfq_uuid) AS nb_rfq,
			       COUNT(DISTINCT lc.rfq_uuid) FILTER (WHERE r.statut = 'repondu') AS nb_reponses,
			       COUNT(DISTINCT sel.id) AS nb_selections
			FROM demandes_achat da
			LEFT JOIN lignes_cotation lc ON lc.numero_da = da.numero_da AND lc.code_article = da.code_article
			LEFT JOIN rfqs r ON r.uuid = lc.rfq_uuid
			LEFT JOIN selections sel ON sel.numero_da = da.numero_da AND sel.code_article = da.code_article
			GROUP BY da.numero_da, da.statut, da.priorite
			ORDER BY da.numero_da
		`
		rows, err := db.Query(query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard", "details": err.Error()})
			return
		}
		defer rows.Close()

		dashboard := []gin.H{}
		for rows.Next() {
			var numeroDA, statut, priorite string
			var nbArticles, nbRFQ, nbReponses, nbSelections int
			if err := rows.Scan(&numeroDA, &statut, &priorite, &nbArticles, &nbRFQ, &nbReponses, &nbSelections); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan dashboard row", "details": err.Error()})
				return
			}
			dashboard = append(dashboard, gin.H{
				"numero_da":     numeroDA,
				"statut":        statut,
				"priorite":      priorite,
				"nb_articles":   nbArticles,
				"nb_rfq":        nbRFQ,
				"nb_reponses":   nbReponses,
				"nb_selections": nbSelections,
			})
		}
		c.JSON(http.StatusOK, dashboard)
	}
}
