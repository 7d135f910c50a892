package models

import "time"

// Supplier statuses. Suppliers are never deleted, only moved to "inactif".
const (
	SupplierActive    = "actif"
	SupplierInactive  = "inactif"
	SupplierSuspended = "suspendu"
)

// Supplier represents a supplier (fournisseur) with its rolling performance
// metrics. Counters are updated incrementally on response ingestion.
type Supplier struct {
	ID                      int        `json:"id" db:"id"`
	CodeFournisseur         string     `json:"code_fournisseur" db:"code_fournisseur"`
	NomFournisseur          string     `json:"nom_fournisseur" db:"nom_fournisseur"`
	Email                   string     `json:"email" db:"email"`
	Telephone               string     `json:"telephone" db:"telephone"`
	Fax                     string     `json:"fax" db:"fax"`
	Adresse                 string     `json:"adresse" db:"adresse"`
	Pays                    string     `json:"pays" db:"pays"`
	Ville                   string     `json:"ville" db:"ville"`
	Blacklist               bool       `json:"blacklist" db:"blacklist"`
	MotifBlacklist          string     `json:"motif_blacklist" db:"motif_blacklist"`
	DateBlacklist           *time.Time `json:"date_blacklist" db:"date_blacklist"`
	Statut                  string     `json:"statut" db:"statut"`
	NotePerformance         float64    `json:"note_performance" db:"note_performance"`
	NbTotalRFQ              int        `json:"nb_total_rfq" db:"nb_total_rfq"`
	NbReponses              int        `json:"nb_reponses" db:"nb_reponses"`
	TauxReponse             float64    `json:"taux_reponse" db:"taux_reponse"`
	DelaiMoyenReponseHeures int        `json:"delai_moyen_reponse_heures" db:"delai_moyen_reponse_heures"`
	CreatedAt               time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at" db:"updated_at"`
}

// SupplierRequest is the payload for creating or updating a supplier.
type SupplierRequest struct {
	CodeFournisseur string `json:"code_fournisseur" binding:"required"`
	NomFournisseur  string `json:"nom_fournisseur" binding:"required"`
	Email           string `json:"email"`
	Telephone       string `json:"telephone"`
	Fax             string `json:"fax"`
	Adresse         string `json:"adresse"`
	Pays            string `json:"pays"`
	Ville           string `json:"ville"`
}

// BlacklistRequest carries the reason when a supplier is blacklisted.
type BlacklistRequest struct {
	Motif string `json:"motif" binding:"required"`
}
