package handlers

import (
	"database/sql"
	"net/http"

	"fluxachat/models"
	"fluxachat/services"

	"github.com/gin-gonic/gin"
)

// GenerateOrders consolidates selections into purchase orders.
// @Summary Generate purchase orders
// @Description Partitions the given selections by supplier and creates one draft order per supplier. A failed partition is reported without voiding the others.
// @Tags Orders
// @Accept json
// @Produce json
// @Param body body models.GenerateOrdersRequest true "Selections and terms"
// @Success 201 {object} services.GenerationResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/orders/generate [post]
func GenerateOrders(svc *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerateOrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		result, err := svc.GenerateOrders(&req, actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		status := http.StatusCreated
		if len(result.Commandes) == 0 {
			status = http.StatusConflict
		}
		c.JSON(status, result)
	}
}

// ListOrders lists purchase orders.
// @Summary List orders
// @Tags Orders
// @Produce json
// @Param statut query string false "Filter by statut"
// @Success 200 {array} models.PurchaseOrder
// @Failure 500 {object} models.ErrorResponse
// @Router /api/orders [get]
func ListOrders(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT id, numero_bc, code_fournisseur, nom_fournisseur, email_fournisseur,
			       montant_total_ht, tva_pourcent, montant_tva, montant_total_ttc, devise,
			       statut, conditions_paiement, lieu_livraison, commentaire, creee_par,
			       validee_par, date_validation, date_commande, fichier_commande_url,
			       created_at, updated_at
			FROM commandes
		`
		args := []any{}
		if statut := c.Query("statut"); statut != "" {
			query += ` WHERE statut = $1`
			args = append(args, statut)
		}
		query += ` ORDER BY date_commande DESC`

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders", "details": err.Error()})
			return
		}
		defer rows.Close()

		orders := []models.PurchaseOrder{}
		for rows.Next() {
			var po models.PurchaseOrder
			if err := rows.Scan(&po.ID, &po.NumeroBC, &po.CodeFournisseur, &po.NomFournisseur,
				&po.EmailFournisseur, &po.MontantTotalHT, &po.TVAPourcent, &po.MontantTVA,
				&po.MontantTotalTTC, &po.Devise, &po.Statut, &po.ConditionsPaiement,
				&po.LieuLivraison, &po.Commentaire, &po.CreeePar, &po.ValideePar,
				&po.DateValidation, &po.DateCommande, &po.FichierCommandeURL,
				&po.CreatedAt, &po.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order", "details": err.Error()})
				return
			}
			orders = append(orders, po)
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GetOrder returns one order with its lines.
// @Summary Get order
// @Tags Orders
// @Produce json
// @Param numero path string true "Order number"
// @Success 200 {object} models.PurchaseOrder
// @Failure 404 {object} models.ErrorResponse
// @Router /api/orders/{numero} [get]
func GetOrder(store services.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		po, err := store.GetOrderByNumero(c.Param("numero"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, po)
	}
}

// ValidateOrder moves a draft order to validee.
// @Summary Validate order
// @Tags Orders
// @Produce json
// @Param numero path string true "Order number"
// @Success 200 {object} models.PurchaseOrder
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/orders/{numero}/validate [post]
func ValidateOrder(svc *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		po, err := svc.ValidateOrder(c.Param("numero"), actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, po)
	}
}
