package handlers

import (
	"database/sql"
	"net/http"

	"fluxachat/models"
	"fluxachat/services"

	"github.com/gin-gonic/gin"
)

// IssueRFQ sends a consultation to one supplier.
// @Summary Issue RFQ
// @Description Creates and emails one RFQ covering a batch of DA article lines. The DA moves to en_cours and the supplier solicitation counter is bumped.
// @Tags RFQs
// @Accept json
// @Produce json
// @Param body body models.IssueRFQRequest true "Supplier and lines"
// @Success 201 {object} models.RFQ
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/rfqs [post]
func IssueRFQ(svc *services.RFQService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.IssueRFQRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		rfq, err := svc.IssueRFQ(&req, actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rfq)
	}
}

// ListRFQs lists consultations, optionally filtered by statut or supplier.
// @Summary List RFQs
// @Tags RFQs
// @Produce json
// @Param statut query string false "Filter by statut"
// @Param code_fournisseur query string false "Filter by supplier"
// @Success 200 {array} models.RFQ
// @Failure 500 {object} models.ErrorResponse
// @Router /api/rfqs [get]
func ListRFQs(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT r.id, r.uuid, r.numero_rfq, r.code_fournisseur, r.date_envoi,
			       r.date_limite_reponse, r.statut, r.nb_relances, r.date_derniere_relance,
			       r.date_ouverture_email, r.date_clic_formulaire, r.date_reponse,
			       r.ip_ouverture, r.ip_reponse, r.created_at, r.updated_at,
			       f.nom_fournisseur, f.email
			FROM rfqs r JOIN fournisseurs f ON f.code_fournisseur = r.code_fournisseur
			WHERE 1=1
		`
		args := []any{}
		if statut := c.Query("statut"); statut != "" {
			args = append(args, statut)
			query += ` AND r.statut = $1`
		}
		if code := c.Query("code_fournisseur"); code != "" {
			args = append(args, code)
			if len(args) == 1 {
				query += ` AND r.code_fournisseur = $1`
			} else {
				query += ` AND r.code_fournisseur = $2`
			}
		}
		query += ` ORDER BY r.date_envoi DESC`

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list RFQs", "details": err.Error()})
			return
		}
		defer rows.Close()

		rfqs := []models.RFQ{}
		for rows.Next() {
			var r models.RFQ
			if err := rows.Scan(&r.ID, &r.UUID, &r.NumeroRFQ, &r.CodeFournisseur,
				&r.DateEnvoi, &r.DateLimiteReponse, &r.Statut, &r.NbRelances,
				&r.DateDerniereRelance, &r.DateOuvertureEmail, &r.DateClicFormulaire,
				&r.DateReponse, &r.IPOuverture, &r.IPReponse, &r.CreatedAt, &r.UpdatedAt,
				&r.NomFournisseur, &r.EmailFournisseur); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan RFQ", "details": err.Error()})
				return
			}
			rfqs = append(rfqs, r)
		}
		c.JSON(http.StatusOK, rfqs)
	}
}

// GetRFQ returns one RFQ with its quote lines.
// @Summary Get RFQ
// @Tags RFQs
// @Produce json
// @Param uuid path string true "RFQ UUID"
// @Success 200 {object} models.RFQ
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfqs/{uuid} [get]
func GetRFQ(store services.RFQStore, db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfq, err := store.GetRFQByUUID(c.Param("uuid"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		query := `
			SELECT id, rfq_uuid, numero_da, code_article, designation_article,
			       quantite_demandee, unite, marque_souhaitee
			FROM lignes_cotation WHERE rfq_uuid = $1 ORDER BY id
		`
		rows, err := db.Query(query, rfq.UUID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load quote lines", "details": err.Error()})
			return
		}
		defer rows.Close()
		for rows.Next() {
			var l models.QuoteLine
			if err := rows.Scan(&l.ID, &l.RFQUUID, &l.NumeroDA, &l.CodeArticle,
				&l.DesignationArticle, &l.QuantiteDemandee, &l.Unite, &l.MarqueSouhaitee); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan quote line", "details": err.Error()})
				return
			}
			rfq.Lignes = append(rfq.Lignes, l)
		}
		c.JSON(http.StatusOK, rfq)
	}
}
