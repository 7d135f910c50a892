package storage

import (
	"database/sql"
	"fmt"

	"fluxachat/models"
)

const rfqColumns = `id, uuid, numero_rfq, code_fournisseur, date_envoi, date_limite_reponse,
	statut, nb_relances, date_derniere_relance, date_ouverture_email, date_clic_formulaire,
	date_reponse, ip_ouverture, ip_reponse, created_at, updated_at`

func scanRFQ(row interface{ Scan(...any) error }) (*models.RFQ, error) {
	var r models.RFQ
	err := row.Scan(&r.ID, &r.UUID, &r.NumeroRFQ, &r.CodeFournisseur, &r.DateEnvoi,
		&r.DateLimiteReponse, &r.Statut, &r.NbRelances, &r.DateDerniereRelance,
		&r.DateOuvertureEmail, &r.DateClicFormulaire, &r.DateReponse,
		&r.IPOuverture, &r.IPReponse, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetRFQByUUID(uuid string) (*models.RFQ, error) {
	query := `
		SELECT r.id, r.uuid, r.numero_rfq, r.code_fournisseur, r.date_envoi, r.date_limite_reponse,
		       r.statut, r.nb_relances, r.date_derniere_relance, r.date_ouverture_email,
		       r.date_clic_formulaire, r.date_reponse, r.ip_ouverture, r.ip_reponse,
		       r.created_at, r.updated_at, f.nom_fournisseur, f.email
		FROM rfqs r JOIN fournisseurs f ON f.code_fournisseur = r.code_fournisseur
		WHERE r.uuid = $1
	`
	var r models.RFQ
	err := s.db.QueryRow(query, uuid).Scan(&r.ID, &r.UUID, &r.NumeroRFQ, &r.CodeFournisseur,
		&r.DateEnvoi, &r.DateLimiteReponse, &r.Statut, &r.NbRelances, &r.DateDerniereRelance,
		&r.DateOuvertureEmail, &r.DateClicFormulaire, &r.DateReponse,
		&r.IPOuverture, &r.IPReponse, &r.CreatedAt, &r.UpdatedAt,
		&r.NomFournisseur, &r.EmailFournisseur)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("RFQ %s not found", uuid)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveRFQ persists the mutable lifecycle fields. Quote lines are immutable
// after creation and are not touched here.
func (s *Store) SaveRFQ(rfq *models.RFQ) error {
	query := `
		UPDATE rfqs
		SET statut = $1, nb_relances = $2, date_derniere_relance = $3,
		    date_ouverture_email = $4, date_clic_formulaire = $5, date_reponse = $6,
		    ip_ouverture = $7, ip_reponse = $8, updated_at = NOW()
		WHERE uuid = $9
	`
	_, err := s.db.Exec(query, rfq.Statut, rfq.NbRelances, rfq.DateDerniereRelance,
		rfq.DateOuvertureEmail, rfq.DateClicFormulaire, rfq.DateReponse,
		rfq.IPOuverture, rfq.IPReponse, rfq.UUID)
	return err
}

// ListOpenRFQs returns every RFQ still subject to escalation.
func (s *Store) ListOpenRFQs() ([]models.RFQ, error) {
	query := `SELECT ` + rfqColumns + ` FROM rfqs
		WHERE statut IN ('envoye', 'vu', 'relance_1', 'relance_2', 'relance_3')
		ORDER BY date_envoi`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rfqs []models.RFQ
	for rows.Next() {
		r, err := scanRFQ(rows)
		if err != nil {
			return nil, err
		}
		rfqs = append(rfqs, *r)
	}
	return rfqs, rows.Err()
}

// CreateRFQ inserts the RFQ and its quote lines in one transaction.
func (s *Store) CreateRFQ(rfq *models.RFQ) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertRFQ := `
		INSERT INTO rfqs (uuid, numero_rfq, code_fournisseur, date_envoi, date_limite_reponse, statut)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := tx.QueryRow(insertRFQ, rfq.UUID, rfq.NumeroRFQ, rfq.CodeFournisseur,
		rfq.DateEnvoi, rfq.DateLimiteReponse, rfq.Statut).Scan(&rfq.ID); err != nil {
		return fmt.Errorf("failed to insert RFQ: %v", err)
	}

	insertLine := `
		INSERT INTO lignes_cotation (rfq_uuid, numero_da, code_article, designation_article,
		                             quantite_demandee, unite, marque_souhaitee)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	for i := range rfq.Lignes {
		l := &rfq.Lignes[i]
		if err := tx.QueryRow(insertLine, rfq.UUID, l.NumeroDA, l.CodeArticle,
			l.DesignationArticle, l.QuantiteDemandee, l.Unite, l.MarqueSouhaitee).Scan(&l.ID); err != nil {
			return fmt.Errorf("failed to insert quote line: %v", err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetQuoteLines(rfqUUID string) ([]models.QuoteLine, error) {
	query := `
		SELECT id, rfq_uuid, numero_da, code_article, designation_article, quantite_demandee, unite, marque_souhaitee
		FROM lignes_cotation WHERE rfq_uuid = $1 ORDER BY id
	`
	rows, err := s.db.Query(query, rfqUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.QuoteLine
	for rows.Next() {
		var l models.QuoteLine
		if err := rows.Scan(&l.ID, &l.RFQUUID, &l.NumeroDA, &l.CodeArticle,
			&l.DesignationArticle, &l.QuantiteDemandee, &l.Unite, &l.MarqueSouhaitee); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
