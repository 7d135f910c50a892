package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fluxachat/models"
	"fluxachat/services"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportUnansweredRFQs exports every open consultation to an Excel workbook
// for a manual chase campaign.
// @Summary Export unanswered RFQs
// @Description Returns an xlsx of every RFQ still awaiting an answer, with relance count and days since send.
// @Tags RFQs
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} models.ErrorResponse
// @Router /api/rfqs/export/unanswered [get]
func ExportUnansweredRFQs(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT r.numero_rfq, r.code_fournisseur, f.nom_fournisseur, f.email,
			       r.date_envoi, r.statut, r.nb_relances, r.date_derniere_relance
			FROM rfqs r JOIN fournisseurs f ON f.code_fournisseur = r.code_fournisseur
			WHERE r.statut IN ('envoye', 'vu', 'relance_1', 'relance_2', 'relance_3')
			ORDER BY r.date_envoi
		`
		rows, err := db.Query(query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query RFQs", "details": err.Error()})
			return
		}
		defer rows.Close()

		f := excelize.NewFile()
		sheet := "RFQ sans reponse"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Numero RFQ", "Code fournisseur", "Fournisseur", "Email",
			"Date envoi", "Statut", "Nb relances", "Derniere relance", "Jours ecoules"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		rowIdx := 2
		now := time.Now()
		for rows.Next() {
			var numero, code, nom, email, statut string
			var dateEnvoi time.Time
			var nbRelances int
			var derniereRelance *time.Time
			if err := rows.Scan(&numero, &code, &nom, &email, &dateEnvoi, &statut,
				&nbRelances, &derniereRelance); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan RFQ", "details": err.Error()})
				return
			}

			relance := ""
			if derniereRelance != nil {
				relance = derniereRelance.Format("02/01/2006")
			}
			values := []any{numero, code, nom, email, dateEnvoi.Format("02/01/2006"),
				statut, nbRelances, relance, int(now.Sub(dateEnvoi).Hours() / 24)}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx)
				f.SetCellValue(sheet, cell, v)
			}
			rowIdx++
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment;filename=rfq_sans_reponse.xlsx")
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write workbook", "details": err.Error()})
		}
	}
}

// ImportDAs imports purchase request lines from an xlsx extract of the ERP.
// Expected columns: numero_da, code_article, designation, quantite, unite,
// marque_souhaitee, priorite.
// @Summary Import purchase requests
// @Tags PurchaseRequests
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx file"
// @Success 200 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Router /api/das/import [post]
func ImportDAs(db *sql.DB, audit services.AuditSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "details": err.Error()})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open file", "details": err.Error()})
			return
		}
		defer src.Close()

		wb, err := excelize.OpenReader(src)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid xlsx file", "details": err.Error()})
			return
		}
		defer wb.Close()

		sheet := wb.GetSheetName(0)
		xrows, err := wb.GetRows(sheet)
		if err != nil || len(xrows) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Empty or unreadable sheet"})
			return
		}

		insert := `
			INSERT INTO demandes_achat (numero_da, code_article, designation_article, quantite, unite, marque_souhaitee, priorite)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (numero_da, code_article) DO UPDATE SET
				designation_article = EXCLUDED.designation_article,
				quantite = EXCLUDED.quantite,
				unite = EXCLUDED.unite,
				marque_souhaitee = EXCLUDED.marque_souhaitee,
				priorite = EXCLUDED.priorite,
				updated_at = NOW()
		`
		imported, skipped := 0, 0
		for _, row := range xrows[1:] {
			if len(row) < 4 || row[0] == "" || row[1] == "" {
				skipped++
				continue
			}
			qty, err := strconv.ParseFloat(row[3], 64)
			if err != nil || qty <= 0 {
				skipped++
				continue
			}
			designation, unite, marque, priorite := "", "", "", models.PriorityNormal
			if len(row) > 2 {
				designation = row[2]
			}
			if len(row) > 4 {
				unite = row[4]
			}
			if len(row) > 5 {
				marque = row[5]
			}
			if len(row) > 6 && row[6] != "" {
				priorite = row[6]
			}
			if _, err := db.Exec(insert, row[0], row[1], designation, qty, unite, marque, priorite); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert DA line", "details": err.Error()})
				return
			}
			imported++
		}

		audit.Record("da", "import", "import_excel", actor(c), fmt.Sprintf("%d ligne(s), %d ignoree(s)", imported, skipped))
		c.JSON(http.StatusOK, gin.H{"imported": imported, "skipped": skipped})
	}
}

// ListDAs lists purchase request lines.
// @Summary List purchase requests
// @Tags PurchaseRequests
// @Produce json
// @Param statut query string false "Filter by statut"
// @Success 200 {array} models.PurchaseRequest
// @Failure 500 {object} models.ErrorResponse
// @Router /api/das [get]
func ListDAs(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `
			SELECT id, numero_da, code_article, designation_article, quantite, unite,
			       marque_souhaitee, date_creation_da, date_besoin, statut, priorite,
			       created_at, updated_at
			FROM demandes_achat
		`
		args := []any{}
		if statut := c.Query("statut"); statut != "" {
			query += ` WHERE statut = $1`
			args = append(args, statut)
		}
		query += ` ORDER BY numero_da, code_article`

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list DAs", "details": err.Error()})
			return
		}
		defer rows.Close()

		das := []models.PurchaseRequest{}
		for rows.Next() {
			var pr models.PurchaseRequest
			if err := rows.Scan(&pr.ID, &pr.NumeroDA, &pr.CodeArticle, &pr.DesignationArticle,
				&pr.Quantite, &pr.Unite, &pr.MarqueSouhaitee, &pr.DateCreationDA,
				&pr.DateBesoin, &pr.Statut, &pr.Priorite, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan DA", "details": err.Error()})
				return
			}
			das = append(das, pr)
		}
		c.JSON(http.StatusOK, das)
	}
}
