package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"fluxachat/models"
	"fluxachat/services"

	"github.com/gin-gonic/gin"
)

// SelectOffer records a manual winning-offer choice for one pair.
// @Summary Select offer
// @Description Records the chosen response detail as the winner for the (code_article, numero_da) pair. Re-selecting replaces the previous choice unless an order was already generated.
// @Tags Selections
// @Accept json
// @Produce json
// @Param body body models.SelectOfferRequest true "Pair and detail"
// @Success 200 {object} models.Selection
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/selections [post]
func SelectOffer(svc *services.SelectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SelectOfferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		pair := services.ArticlePair{CodeArticle: req.CodeArticle, NumeroDA: req.NumeroDA}
		sel, err := svc.Select(pair, req.DetailID, false, actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sel)
	}
}

// AutoSelect applies the comparison recommendation to every unselected pair.
// @Summary Auto-select offers
// @Tags Selections
// @Produce json
// @Success 200 {array} models.Selection
// @Failure 500 {object} models.ErrorResponse
// @Router /api/selections/auto [post]
func AutoSelect(svc *services.SelectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		selections, err := svc.AutoSelect(actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if selections == nil {
			selections = []models.Selection{}
		}
		c.JSON(http.StatusOK, selections)
	}
}

// ListSelections lists current selections, optionally filtered by DA.
// @Summary List selections
// @Tags Selections
// @Produce json
// @Param numero_da query string false "Filter by DA"
// @Success 200 {array} models.Selection
// @Failure 500 {object} models.ErrorResponse
// @Router /api/selections [get]
func ListSelections(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT s.id, s.code_article, s.designation, s.numero_da, s.quantite, s.unite,
			       s.code_fournisseur, s.detail_id, s.prix_selectionne, s.devise,
			       s.marque_proposee, s.marque_conforme, s.date_livraison, s.delai_livraison,
			       s.selection_auto, s.modifie_par, s.date_selection, s.date_modification,
			       s.statut, s.numero_bc, f.nom_fournisseur
			FROM selections s
			JOIN fournisseurs f ON f.code_fournisseur = s.code_fournisseur
		`
		args := []any{}
		if numeroDA := c.Query("numero_da"); numeroDA != "" {
			query += ` WHERE s.numero_da = $1`
			args = append(args, numeroDA)
		}
		query += ` ORDER BY s.numero_da, s.code_article`

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list selections", "details": err.Error()})
			return
		}
		defer rows.Close()

		selections := []models.Selection{}
		for rows.Next() {
			var s models.Selection
			if err := rows.Scan(&s.ID, &s.CodeArticle, &s.Designation, &s.NumeroDA,
				&s.Quantite, &s.Unite, &s.CodeFournisseur, &s.DetailID, &s.PrixSelectionne,
				&s.Devise, &s.MarqueProposee, &s.MarqueConforme, &s.DateLivraison,
				&s.DelaiLivraison, &s.SelectionAuto, &s.ModifiePar, &s.DateSelection,
				&s.DateModification, &s.Statut, &s.NumeroBC, &s.NomFournisseur); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan selection", "details": err.Error()})
				return
			}
			selections = append(selections, s)
		}
		c.JSON(http.StatusOK, selections)
	}
}

// DeleteSelection removes a selection that has not been turned into an order.
// @Summary Delete selection
// @Tags Selections
// @Produce json
// @Param id path int true "Selection ID"
// @Success 200 {object} utils.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/selections/{id} [delete]
func DeleteSelection(db *sql.DB, audit services.AuditSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid selection ID"})
			return
		}

		var statut, numeroDA, codeArticle string
		err = db.QueryRow(`SELECT statut, numero_da, code_article FROM selections WHERE id = $1`, id).
			Scan(&statut, &numeroDA, &codeArticle)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Selection not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load selection", "details": err.Error()})
			return
		}
		if statut == models.SelectionBCGenerated {
			c.JSON(http.StatusConflict, gin.H{"error": "Selection already converted to an order", "kind": services.KindSelectionLocked})
			return
		}

		if _, err := db.Exec(`DELETE FROM selections WHERE id = $1`, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete selection", "details": err.Error()})
			return
		}
		audit.Record("selection", numeroDA+"/"+codeArticle, "suppression", actor(c), "")
		c.JSON(http.StatusOK, gin.H{"message": "Selection deleted"})
	}
}
