package models

import "time"

// Purchase order (bon de commande) statuses.
const (
	OrderDraft     = "brouillon"
	OrderValidated = "validee"
	OrderSent      = "envoyee"
	OrderConfirmed = "confirmee"
	OrderDelivered = "livree"
	OrderCancelled = "annulee"
)

// PurchaseOrder is one consolidated order issued to one supplier. All lines
// share the supplier; lines may span several DAs. Totals are recomputed from
// the lines, never accumulated.
type PurchaseOrder struct {
	ID                 int         `json:"id" db:"id"`
	NumeroBC           string      `json:"numero_bc" db:"numero_bc"`
	CodeFournisseur    string      `json:"code_fournisseur" db:"code_fournisseur"`
	NomFournisseur     string      `json:"nom_fournisseur" db:"nom_fournisseur"`
	EmailFournisseur   string      `json:"email_fournisseur" db:"email_fournisseur"`
	MontantTotalHT     float64     `json:"montant_total_ht" db:"montant_total_ht"`
	TVAPourcent        float64     `json:"tva_pourcent" db:"tva_pourcent"`
	MontantTVA         float64     `json:"montant_tva" db:"montant_tva"`
	MontantTotalTTC    float64     `json:"montant_total_ttc" db:"montant_total_ttc"`
	Devise             string      `json:"devise" db:"devise"`
	Statut             string      `json:"statut" db:"statut"`
	ConditionsPaiement string      `json:"conditions_paiement" db:"conditions_paiement"`
	LieuLivraison      string      `json:"lieu_livraison" db:"lieu_livraison"`
	Commentaire        string      `json:"commentaire" db:"commentaire"`
	CreeePar           string      `json:"creee_par" db:"creee_par"`
	ValideePar         string      `json:"validee_par" db:"validee_par"`
	DateValidation     *time.Time  `json:"date_validation" db:"date_validation"`
	DateCommande       time.Time   `json:"date_commande" db:"date_commande"`
	FichierCommandeURL string      `json:"fichier_commande_url" db:"fichier_commande_url"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
	Lignes             []OrderLine `json:"lignes,omitempty" db:"-"`
}

// OrderLine is one line of a purchase order. The selection/detail/DA/RFQ
// back-references are provenance fields carried on purpose: tracing a line
// back to the original quote needs no joins.
type OrderLine struct {
	ID                  int        `json:"id" db:"id"`
	NumeroBC            string     `json:"numero_bc" db:"numero_bc"`
	SelectionID         int        `json:"selection_id" db:"selection_id"`
	DetailID            int        `json:"detail_id" db:"detail_id"`
	ReponseEnteteID     int        `json:"reponse_entete_id" db:"reponse_entete_id"`
	RFQUUID             string     `json:"rfq_uuid" db:"rfq_uuid"`
	NumeroDA            string     `json:"numero_da" db:"numero_da"`
	CodeArticle         string     `json:"code_article" db:"code_article"`
	Designation         string     `json:"designation" db:"designation"`
	Quantite            float64    `json:"quantite" db:"quantite"`
	Unite               string     `json:"unite" db:"unite"`
	PrixUnitaireHT      float64    `json:"prix_unitaire_ht" db:"prix_unitaire_ht"`
	MontantLigneHT      float64    `json:"montant_ligne_ht" db:"montant_ligne_ht"`
	TVAPourcent         float64    `json:"tva_pourcent" db:"tva_pourcent"`
	MontantLigneTVA     float64    `json:"montant_ligne_tva" db:"montant_ligne_tva"`
	MontantLigneTTC     float64    `json:"montant_ligne_ttc" db:"montant_ligne_ttc"`
	DateLivraisonPrevue *time.Time `json:"date_livraison_prevue" db:"date_livraison_prevue"`
}

// GenerateOrdersRequest asks for order generation from a set of selections.
// Selections are partitioned by supplier; one order is created per partition.
type GenerateOrdersRequest struct {
	SelectionIDs       []int  `json:"selection_ids" binding:"required"`
	ConditionsPaiement string `json:"conditions_paiement"`
	LieuLivraison      string `json:"lieu_livraison"`
	Commentaire        string `json:"commentaire"`
}
