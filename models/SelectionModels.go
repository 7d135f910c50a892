package models

import "time"

// Selection statuses. Once bc_genere the selection is immutable.
const (
	SelectionSelected    = "selectionne"
	SelectionBCGenerated = "bc_genere"
)

// Selection records the chosen winning offer for one (code_article,
// numero_da) pair. At most one active selection exists per pair; selecting
// again replaces the previous one.
type Selection struct {
	ID               int        `json:"id" db:"id"`
	CodeArticle      string     `json:"code_article" db:"code_article"`
	Designation      string     `json:"designation" db:"designation"`
	NumeroDA         string     `json:"numero_da" db:"numero_da"`
	Quantite         float64    `json:"quantite" db:"quantite"`
	Unite            string     `json:"unite" db:"unite"`
	CodeFournisseur  string     `json:"code_fournisseur" db:"code_fournisseur"`
	NomFournisseur   string     `json:"nom_fournisseur,omitempty" db:"-"`
	DetailID         int        `json:"detail_id" db:"detail_id"`
	PrixSelectionne  float64    `json:"prix_selectionne" db:"prix_selectionne"`
	Devise           string     `json:"devise" db:"devise"`
	MarqueProposee   string     `json:"marque_proposee" db:"marque_proposee"`
	MarqueConforme   bool       `json:"marque_conforme" db:"marque_conforme"`
	DateLivraison    *time.Time `json:"date_livraison" db:"date_livraison"`
	DelaiLivraison   int        `json:"delai_livraison" db:"delai_livraison"`
	SelectionAuto    bool       `json:"selection_auto" db:"selection_auto"`
	ModifiePar       string     `json:"modifie_par" db:"modifie_par"`
	DateSelection    time.Time  `json:"date_selection" db:"date_selection"`
	DateModification *time.Time `json:"date_modification" db:"date_modification"`
	Statut           string     `json:"statut" db:"statut"`
	NumeroBC         string     `json:"numero_bc,omitempty" db:"numero_bc"`
}

// SelectOfferRequest is the manual select_offer payload. The detail must be a
// comparison-eligible offer for the (code_article, numero_da) pair.
type SelectOfferRequest struct {
	CodeArticle string `json:"code_article" binding:"required"`
	NumeroDA    string `json:"numero_da" binding:"required"`
	DetailID    int    `json:"detail_id" binding:"required"`
}
