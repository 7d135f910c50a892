package handlers

import (
	"fmt"
	"net/http"

	"fluxachat/services"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GenerateOrderPDF godoc
// @Summary      Generate purchase order PDF
// @Tags         Orders
// @Param        numero  path  string  true  "Order number"
// @Success      200  "PDF file"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/orders/{numero}/pdf [get]
func GenerateOrderPDF(store services.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		po, err := store.GetOrderByNumero(c.Param("numero"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		titleCaser := cases.Title(language.French)

		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)

		// --- Header ---
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, "BON DE COMMANDE")
		pdf.Ln(12)

		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(95, 6, fmt.Sprintf("Numero: %s", po.NumeroBC))
		pdf.Cell(95, 6, fmt.Sprintf("Date: %s", po.DateCommande.Format("02-Jan-2006")))
		pdf.Ln(8)

		// --- Supplier block ---
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(190, 8, "Fournisseur")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(120, 6, fmt.Sprintf("%s (%s)\n%s",
			titleCaser.String(po.NomFournisseur), po.CodeFournisseur, po.EmailFournisseur), "", "", false)
		pdf.Ln(4)

		if po.ConditionsPaiement != "" {
			pdf.Cell(190, 6, fmt.Sprintf("Conditions de paiement: %s", po.ConditionsPaiement))
			pdf.Ln(6)
		}
		if po.LieuLivraison != "" {
			pdf.Cell(190, 6, fmt.Sprintf("Lieu de livraison: %s", po.LieuLivraison))
			pdf.Ln(6)
		}
		pdf.Ln(4)

		// --- Table header ---
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(25, 8, "Article", "1", 0, "L", true, 0, "")
		pdf.CellFormat(55, 8, "Designation", "1", 0, "L", true, 0, "")
		pdf.CellFormat(20, 8, "Qte", "1", 0, "C", true, 0, "")
		pdf.CellFormat(15, 8, "Unite", "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 8, "PU HT", "1", 0, "C", true, 0, "")
		pdf.CellFormat(20, 8, "DA", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 8, "Montant HT", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, line := range po.Lignes {
			pdf.CellFormat(25, 8, line.CodeArticle, "1", 0, "L", false, 0, "")
			pdf.CellFormat(55, 8, line.Designation, "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 8, fmt.Sprintf("%.2f", line.Quantite), "1", 0, "C", false, 0, "")
			pdf.CellFormat(15, 8, line.Unite, "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", line.PrixUnitaireHT), "1", 0, "R", false, 0, "")
			pdf.CellFormat(20, 8, line.NumeroDA, "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", line.MontantLigneHT), "1", 1, "R", false, 0, "")
		}

		pdf.Ln(5)

		// --- Totals ---
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(160, 8, "Total HT")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f %s", po.MontantTotalHT, po.Devise), "1", 1, "R", false, 0, "")
		pdf.Cell(160, 8, fmt.Sprintf("TVA (%.0f%%)", po.TVAPourcent))
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f %s", po.MontantTVA, po.Devise), "1", 1, "R", false, 0, "")
		pdf.Cell(160, 8, "Total TTC")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f %s", po.MontantTotalTTC, po.Devise), "1", 1, "R", false, 0, "")

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", po.NumeroBC))
		c.Header("Content-Type", "application/pdf")
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render PDF", "details": err.Error()})
			return
		}
	}
}
