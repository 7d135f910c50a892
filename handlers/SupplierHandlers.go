package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"fluxachat/models"
	"fluxachat/services"

	"github.com/gin-gonic/gin"
)

// CreateSupplier creates a new supplier.
// @Summary Create supplier
// @Description Creates a supplier with its contact details. Requires Authorization header.
// @Tags Suppliers
// @Accept json
// @Produce json
// @Param body body models.SupplierRequest true "Supplier data"
// @Success 201 {object} models.Supplier
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/suppliers [post]
func CreateSupplier(db *sql.DB, audit services.AuditSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SupplierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		query := `
			INSERT INTO fournisseurs (code_fournisseur, nom_fournisseur, email, telephone, fax, adresse, pays, ville)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at
		`
		sup := models.Supplier{
			CodeFournisseur: req.CodeFournisseur,
			NomFournisseur:  req.NomFournisseur,
			Email:           req.Email,
			Telephone:       req.Telephone,
			Fax:             req.Fax,
			Adresse:         req.Adresse,
			Pays:            req.Pays,
			Ville:           req.Ville,
			Statut:          models.SupplierActive,
		}
		err := db.QueryRow(query, req.CodeFournisseur, req.NomFournisseur, req.Email,
			req.Telephone, req.Fax, req.Adresse, req.Pays, req.Ville).
			Scan(&sup.ID, &sup.CreatedAt, &sup.UpdatedAt)
		if err != nil {
			log.Printf("Error inserting supplier: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert supplier", "details": err.Error()})
			return
		}

		audit.Record("fournisseur", sup.CodeFournisseur, "creation", actor(c), sup.NomFournisseur)
		c.JSON(http.StatusCreated, sup)
	}
}

// ListSuppliers lists suppliers.
// @Summary List suppliers
// @Description Lists suppliers, optionally filtered by statut or blacklist flag.
// @Tags Suppliers
// @Produce json
// @Param statut query string false "Filter by statut"
// @Success 200 {array} models.Supplier
// @Failure 500 {object} models.ErrorResponse
// @Router /api/suppliers [get]
func ListSuppliers(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT id, code_fournisseur, nom_fournisseur, email, telephone, fax, adresse,
			       pays, ville, blacklist, motif_blacklist, date_blacklist, statut,
			       note_performance, nb_total_rfq, nb_reponses, taux_reponse,
			       delai_moyen_reponse_heures, created_at, updated_at
			FROM fournisseurs
		`
		args := []any{}
		if statut := c.Query("statut"); statut != "" {
			query += ` WHERE statut = $1`
			args = append(args, statut)
		}
		query += ` ORDER BY code_fournisseur`

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list suppliers", "details": err.Error()})
			return
		}
		defer rows.Close()

		suppliers := []models.Supplier{}
		for rows.Next() {
			var s models.Supplier
			if err := rows.Scan(&s.ID, &s.CodeFournisseur, &s.NomFournisseur, &s.Email,
				&s.Telephone, &s.Fax, &s.Adresse, &s.Pays, &s.Ville, &s.Blacklist,
				&s.MotifBlacklist, &s.DateBlacklist, &s.Statut, &s.NotePerformance,
				&s.NbTotalRFQ, &s.NbReponses, &s.TauxReponse, &s.DelaiMoyenReponseHeures,
				&s.CreatedAt, &s.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan supplier", "details": err.Error()})
				return
			}
			suppliers = append(suppliers, s)
		}
		c.JSON(http.StatusOK, suppliers)
	}
}

// GetSupplier returns one supplier by code.
// @Summary Get supplier
// @Tags Suppliers
// @Produce json
// @Param code path string true "Supplier code"
// @Success 200 {object} models.Supplier
// @Failure 404 {object} models.ErrorResponse
// @Router /api/suppliers/{code} [get]
func GetSupplier(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT id, code_fournisseur, nom_fournisseur, email, telephone, fax, adresse,
			       pays, ville, blacklist, motif_blacklist, date_blacklist, statut,
			       note_performance, nb_total_rfq, nb_reponses, taux_reponse,
			       delai_moyen_reponse_heures, created_at, updated_at
			FROM fournisseurs WHERE code_fournisseur = $1
		`
		var s models.Supplier
		err := db.QueryRow(query, c.Param("code")).Scan(&s.ID, &s.CodeFournisseur,
			&s.NomFournisseur, &s.Email, &s.Telephone, &s.Fax, &s.Adresse, &s.Pays,
			&s.Ville, &s.Blacklist, &s.MotifBlacklist, &s.DateBlacklist, &s.Statut,
			&s.NotePerformance, &s.NbTotalRFQ, &s.NbReponses, &s.TauxReponse,
			&s.DelaiMoyenReponseHeures, &s.CreatedAt, &s.UpdatedAt)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load supplier", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// UpdateSupplier updates a supplier's contact details by code.
// @Summary Update supplier
// @Tags Suppliers
// @Accept json
// @Produce json
// @Param code path string true "Supplier code"
// @Param body body models.SupplierRequest true "Supplier data"
// @Success 200 {object} models.Supplier
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/suppliers/{code} [put]
func UpdateSupplier(db *sql.DB, audit services.AuditSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		var req models.SupplierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		query := `
			UPDATE fournisseurs
			SET nom_fournisseur = $1, email = $2, telephone = $3, fax = $4,
			    adresse = $5, pays = $6, ville = $7, updated_at = NOW()
			WHERE code_fournisseur = $8
		`
		result, err := db.Exec(query, req.NomFournisseur, req.Email, req.Telephone,
			req.Fax, req.Adresse, req.Pays, req.Ville, code)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update supplier", "details": err.Error()})
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
			return
		}

		audit.Record("fournisseur", code, "mise_a_jour", actor(c), "")
		c.JSON(http.StatusOK, gin.H{"message": "Supplier updated"})
	}
}

// BlacklistSupplier blacklists a supplier with a reason.
// @Summary Blacklist supplier
// @Description Flags the supplier as blacklisted. Existing offers stay visible but are excluded from comparison stats and selection.
// @Tags Suppliers
// @Accept json
// @Produce json
// @Param code path string true "Supplier code"
// @Param body body models.BlacklistRequest true "Reason"
// @Success 200 {object} utils.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/suppliers/{code}/blacklist [post]
func BlacklistSupplier(db *sql.DB, audit services.AuditSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		var req models.BlacklistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		query := `
			UPDATE fournisseurs
			SET blacklist = TRUE, motif_blacklist = $1, date_blacklist = $2, updated_at = NOW()
			WHERE code_fournisseur = $3
		`
		result, err := db.Exec(query, req.Motif, time.Now(), code)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to blacklist supplier", "details": err.Error()})
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
			return
		}

		audit.Record("fournisseur", code, "blacklist", actor(c), req.Motif)
		c.JSON(http.StatusOK, gin.H{"message": "Supplier blacklisted"})
	}
}

// UnblacklistSupplier removes the blacklist flag.
// @Summary Remove supplier blacklist
// @Tags Suppliers
// @Produce json
// @Param code path string true "Supplier code"
// @Success 200 {object} utils.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /api/suppliers/{code}/blacklist [delete]
func UnblacklistSupplier(db *sql.DB, audit services.AuditSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		query := `
			UPDATE fournisseurs
			SET blacklist = FALSE, motif_blacklist = '', date_blacklist = NULL, updated_at = NOW()
			WHERE code_fournisseur = $1
		`
		result, err := db.Exec(query, code)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update supplier", "details": err.Error()})
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
			return
		}

		audit.Record("fournisseur", code, "deblacklist", actor(c), "")
		c.JSON(http.StatusOK, gin.H{"message": "Supplier blacklist removed"})
	}
}
