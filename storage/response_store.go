package storage

import (
	"database/sql"
	"fmt"

	"fluxachat/models"
)

// ReplaceResponse persists a supplier reply, superseding any previous one for
// the same RFQ. Header and details go in one transaction so a resubmission is
// never half-applied.
func (s *Store) ReplaceResponse(header *models.ResponseHeader, details []models.ResponseDetail) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Details cascade on header delete.
	if _, err := tx.Exec(`DELETE FROM reponses_entetes WHERE rfq_uuid = $1`, header.RFQUUID); err != nil {
		return fmt.Errorf("failed to supersede previous response: %v", err)
	}

	insertHeader := `
		INSERT INTO reponses_entetes (rfq_uuid, devise, conditions_paiement, commentaire, fichier_devis_url, date_reponse)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := tx.QueryRow(insertHeader, header.RFQUUID, header.Devise, header.ConditionsPaiement,
		header.Commentaire, header.FichierDevisURL, header.DateReponse).Scan(&header.ID); err != nil {
		return fmt.Errorf("failed to insert response header: %v", err)
	}

	insertDetail := `
		INSERT INTO reponses_details (reponse_entete_id, rfq_uuid, ligne_cotation_id, code_article,
			prix_unitaire_ht, quantite_disponible, marque_proposee, marque_conforme,
			delai_livraison, date_livraison, fiche_technique_url, commentaire_article)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	for i := range details {
		d := &details[i]
		d.ReponseEnteteID = header.ID
		if err := tx.QueryRow(insertDetail, d.ReponseEnteteID, d.RFQUUID, d.LigneCotationID,
			d.CodeArticle, d.PrixUnitaireHT, d.QuantiteDisponible, d.MarqueProposee,
			d.MarqueConforme, d.DelaiLivraison, d.DateLivraison,
			d.FicheTechniqueURL, d.CommentaireArticle).Scan(&d.ID); err != nil {
			return fmt.Errorf("failed to insert response detail: %v", err)
		}
	}
	return tx.Commit()
}

func (s *Store) SaveRejection(rej *models.Rejection) error {
	query := `INSERT INTO rejets (rfq_uuid, motif, canal, date_rejet) VALUES ($1, $2, $3, $4) RETURNING id`
	return s.db.QueryRow(query, rej.RFQUUID, rej.Motif, rej.Canal, rej.DateRejet).Scan(&rej.ID)
}

// GetOffers flattens every response detail for the (numero_da, code_article)
// pair, joined with its RFQ and supplier. Only answered RFQs contribute.
func (s *Store) GetOffers(numeroDA, codeArticle string) ([]models.Offre, error) {
	query := `
		SELECT d.id, r.uuid, r.numero_rfq, r.code_fournisseur, f.nom_fournisseur,
		       d.prix_unitaire_ht, d.quantite_disponible, d.delai_livraison, d.date_livraison,
		       d.marque_proposee, d.marque_conforme, e.devise, e.date_reponse, f.blacklist
		FROM reponses_details d
		JOIN lignes_cotation lc ON lc.id = d.ligne_cotation_id
		JOIN reponses_entetes e ON e.id = d.reponse_entete_id
		JOIN rfqs r ON r.uuid = d.rfq_uuid
		JOIN fournisseurs f ON f.code_fournisseur = r.code_fournisseur
		WHERE lc.numero_da = $1 AND lc.code_article = $2 AND r.statut = 'repondu'
		ORDER BY d.id
	`
	rows, err := s.db.Query(query, numeroDA, codeArticle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []models.Offre
	for rows.Next() {
		var o models.Offre
		if err := rows.Scan(&o.DetailID, &o.RFQUUID, &o.NumeroRFQ, &o.CodeFournisseur,
			&o.NomFournisseur, &o.PrixUnitaireHT, &o.QuantiteDisponible, &o.DelaiLivraison,
			&o.DateLivraison, &o.MarqueProposee, &o.MarqueConforme, &o.Devise,
			&o.DateReponse, &o.Blacklist); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// CountRFQs aggregates the consultation totals for the pair. Answers from
// blacklisted suppliers stay in the responded count.
func (s *Store) CountRFQs(numeroDA, codeArticle string) (sent, responded, rejected int, err error) {
	query := `
		SELECT COUNT(DISTINCT r.uuid),
		       COUNT(DISTINCT r.uuid) FILTER (WHERE r.statut = 'repondu'),
		       COUNT(DISTINCT r.uuid) FILTER (WHERE r.statut = 'rejete')
		FROM rfqs r
		JOIN lignes_cotation lc ON lc.rfq_uuid = r.uuid
		WHERE lc.numero_da = $1 AND lc.code_article = $2
	`
	err = s.db.QueryRow(query, numeroDA, codeArticle).Scan(&sent, &responded, &rejected)
	return
}

// GetDecision returns the stored verdict for the pair, or nil while the
// comparison is still pending.
func (s *Store) GetDecision(numeroDA, codeArticle string) (*models.Decision, error) {
	var d models.Decision
	query := `
		SELECT id, numero_da, code_article, statut, valide_par, commentaire, date_validation
		FROM decisions
		WHERE numero_da = $1 AND code_article = $2
	`
	err := s.db.QueryRow(query, numeroDA, codeArticle).Scan(&d.ID, &d.NumeroDA, &d.CodeArticle,
		&d.Statut, &d.ValidePar, &d.Commentaire, &d.DateValidation)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) SaveDecision(d *models.Decision) error {
	query := `
		INSERT INTO decisions (numero_da, code_article, statut, valide_par, commentaire, date_validation)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (numero_da, code_article)
		DO UPDATE SET statut = EXCLUDED.statut, valide_par = EXCLUDED.valide_par,
			commentaire = EXCLUDED.commentaire, date_validation = EXCLUDED.date_validation
		RETURNING id
	`
	return s.db.QueryRow(query, d.NumeroDA, d.CodeArticle, d.Statut, d.ValidePar,
		d.Commentaire, d.DateValidation).Scan(&d.ID)
}

// GetDetailProvenance resolves a response detail back to its RFQ and header.
func (s *Store) GetDetailProvenance(detailID int) (string, int, error) {
	var rfqUUID string
	var enteteID int
	query := `SELECT rfq_uuid, reponse_entete_id FROM reponses_details WHERE id = $1`
	err := s.db.QueryRow(query, detailID).Scan(&rfqUUID, &enteteID)
	if err == sql.ErrNoRows {
		return "", 0, fmt.Errorf("response detail %d not found", detailID)
	}
	return rfqUUID, enteteID, err
}
