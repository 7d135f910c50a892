package storage

import "database/sql"

// schemaSQL creates the procurement tables. Idempotent so every boot can run
// it; migrations beyond additive DDL are handled outside the application.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS fournisseurs (
	id SERIAL PRIMARY KEY,
	code_fournisseur TEXT UNIQUE NOT NULL,
	nom_fournisseur TEXT NOT NULL,
	email TEXT DEFAULT '',
	telephone TEXT DEFAULT '',
	fax TEXT DEFAULT '',
	adresse TEXT DEFAULT '',
	pays TEXT DEFAULT '',
	ville TEXT DEFAULT '',
	blacklist BOOLEAN DEFAULT FALSE,
	motif_blacklist TEXT DEFAULT '',
	date_blacklist TIMESTAMPTZ,
	statut TEXT DEFAULT 'actif',
	note_performance DOUBLE PRECISION DEFAULT 0,
	nb_total_rfq INT DEFAULT 0,
	nb_reponses INT DEFAULT 0,
	taux_reponse DOUBLE PRECISION DEFAULT 0,
	delai_moyen_reponse_heures INT DEFAULT 0,
	created_at TIMESTAMPTZ DEFAULT NOW(),
	updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS demandes_achat (
	id SERIAL PRIMARY KEY,
	numero_da TEXT NOT NULL,
	code_article TEXT NOT NULL,
	designation_article TEXT DEFAULT '',
	quantite DOUBLE PRECISION NOT NULL,
	unite TEXT DEFAULT '',
	marque_souhaitee TEXT DEFAULT '',
	date_creation_da TIMESTAMPTZ DEFAULT NOW(),
	date_besoin TIMESTAMPTZ,
	statut TEXT DEFAULT 'nouveau',
	priorite TEXT DEFAULT 'normale',
	created_at TIMESTAMPTZ DEFAULT NOW(),
	updated_at TIMESTAMPTZ DEFAULT NOW(),
	UNIQUE (numero_da, code_article)
);

CREATE TABLE IF NOT EXISTS rfqs (
	id SERIAL PRIMARY KEY,
	uuid TEXT UNIQUE NOT NULL,
	numero_rfq TEXT UNIQUE NOT NULL,
	code_fournisseur TEXT NOT NULL REFERENCES fournisseurs(code_fournisseur),
	date_envoi TIMESTAMPTZ NOT NULL,
	date_limite_reponse TIMESTAMPTZ,
	statut TEXT DEFAULT 'envoye',
	nb_relances INT DEFAULT 0,
	date_derniere_relance TIMESTAMPTZ,
	date_ouverture_email TIMESTAMPTZ,
	date_clic_formulaire TIMESTAMPTZ,
	date_reponse TIMESTAMPTZ,
	ip_ouverture TEXT DEFAULT '',
	ip_reponse TEXT DEFAULT '',
	created_at TIMESTAMPTZ DEFAULT NOW(),
	updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS lignes_cotation (
	id SERIAL PRIMARY KEY,
	rfq_uuid TEXT NOT NULL REFERENCES rfqs(uuid),
	numero_da TEXT NOT NULL,
	code_article TEXT NOT NULL,
	designation_article TEXT DEFAULT '',
	quantite_demandee DOUBLE PRECISION NOT NULL,
	unite TEXT DEFAULT '',
	marque_souhaitee TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reponses_entetes (
	id SERIAL PRIMARY KEY,
	rfq_uuid TEXT UNIQUE NOT NULL REFERENCES rfqs(uuid),
	devise TEXT DEFAULT '',
	conditions_paiement TEXT DEFAULT '',
	commentaire TEXT DEFAULT '',
	fichier_devis_url TEXT DEFAULT '',
	date_reponse TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS reponses_details (
	id SERIAL PRIMARY KEY,
	reponse_entete_id INT NOT NULL REFERENCES reponses_entetes(id) ON DELETE CASCADE,
	rfq_uuid TEXT NOT NULL,
	ligne_cotation_id INT NOT NULL REFERENCES lignes_cotation(id),
	code_article TEXT NOT NULL,
	prix_unitaire_ht DOUBLE PRECISION NOT NULL,
	quantite_disponible DOUBLE PRECISION DEFAULT 0,
	marque_proposee TEXT DEFAULT '',
	marque_conforme BOOLEAN DEFAULT FALSE,
	delai_livraison INT DEFAULT 0,
	date_livraison TIMESTAMPTZ,
	fiche_technique_url TEXT DEFAULT '',
	commentaire_article TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS rejets (
	id SERIAL PRIMARY KEY,
	rfq_uuid TEXT NOT NULL REFERENCES rfqs(uuid),
	motif TEXT DEFAULT '',
	canal TEXT DEFAULT 'webform',
	date_rejet TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS decisions (
	id SERIAL PRIMARY KEY,
	numero_da TEXT NOT NULL,
	code_article TEXT NOT NULL,
	statut TEXT NOT NULL,
	valide_par TEXT DEFAULT '',
	commentaire TEXT DEFAULT '',
	date_validation TIMESTAMPTZ NOT NULL,
	UNIQUE (numero_da, code_article)
);

CREATE TABLE IF NOT EXISTS selections (
	id SERIAL PRIMARY KEY,
	code_article TEXT NOT NULL,
	designation TEXT DEFAULT '',
	numero_da TEXT NOT NULL,
	quantite DOUBLE PRECISION NOT NULL,
	unite TEXT DEFAULT '',
	code_fournisseur TEXT NOT NULL,
	detail_id INT NOT NULL REFERENCES reponses_details(id),
	prix_selectionne DOUBLE PRECISION NOT NULL,
	devise TEXT DEFAULT '',
	marque_proposee TEXT DEFAULT '',
	marque_conforme BOOLEAN DEFAULT FALSE,
	date_livraison TIMESTAMPTZ,
	delai_livraison INT DEFAULT 0,
	selection_auto BOOLEAN DEFAULT FALSE,
	modifie_par TEXT DEFAULT '',
	date_selection TIMESTAMPTZ NOT NULL,
	date_modification TIMESTAMPTZ,
	statut TEXT DEFAULT 'selectionne',
	numero_bc TEXT DEFAULT '',
	UNIQUE (code_article, numero_da)
);

CREATE TABLE IF NOT EXISTS commandes (
	id SERIAL PRIMARY KEY,
	numero_bc TEXT UNIQUE NOT NULL,
	code_fournisseur TEXT NOT NULL,
	nom_fournisseur TEXT DEFAULT '',
	email_fournisseur TEXT DEFAULT '',
	montant_total_ht DOUBLE PRECISION DEFAULT 0,
	tva_pourcent DOUBLE PRECISION DEFAULT 0,
	montant_tva DOUBLE PRECISION DEFAULT 0,
	montant_total_ttc DOUBLE PRECISION DEFAULT 0,
	devise TEXT DEFAULT '',
	statut TEXT DEFAULT 'brouillon',
	conditions_paiement TEXT DEFAULT '',
	lieu_livraison TEXT DEFAULT '',
	commentaire TEXT DEFAULT '',
	creee_par TEXT DEFAULT '',
	validee_par TEXT DEFAULT '',
	date_validation TIMESTAMPTZ,
	date_commande TIMESTAMPTZ NOT NULL,
	fichier_commande_url TEXT DEFAULT '',
	created_at TIMESTAMPTZ DEFAULT NOW(),
	updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS commandes_lignes (
	id SERIAL PRIMARY KEY,
	numero_bc TEXT NOT NULL REFERENCES commandes(numero_bc) ON DELETE CASCADE,
	selection_id INT NOT NULL,
	detail_id INT NOT NULL,
	reponse_entete_id INT NOT NULL,
	rfq_uuid TEXT NOT NULL,
	numero_da TEXT NOT NULL,
	code_article TEXT NOT NULL,
	designation TEXT DEFAULT '',
	quantite DOUBLE PRECISION NOT NULL,
	unite TEXT DEFAULT '',
	prix_unitaire_ht DOUBLE PRECISION NOT NULL,
	montant_ligne_ht DOUBLE PRECISION NOT NULL,
	tva_pourcent DOUBLE PRECISION DEFAULT 0,
	montant_ligne_tva DOUBLE PRECISION DEFAULT 0,
	montant_ligne_ttc DOUBLE PRECISION DEFAULT 0,
	date_livraison_prevue TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS utilisateurs (
	id SERIAL PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	mot_de_passe TEXT NOT NULL,
	nom TEXT DEFAULT '',
	role TEXT DEFAULT 'acheteur',
	actif BOOLEAN DEFAULT TRUE,
	created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS compteurs (
	annee INT NOT NULL,
	type TEXT NOT NULL,
	valeur INT NOT NULL,
	PRIMARY KEY (annee, type)
);

CREATE INDEX IF NOT EXISTS idx_rfqs_statut ON rfqs(statut);
CREATE INDEX IF NOT EXISTS idx_lignes_cotation_article ON lignes_cotation(numero_da, code_article);
CREATE INDEX IF NOT EXISTS idx_reponses_details_ligne ON reponses_details(ligne_cotation_id);
CREATE INDEX IF NOT EXISTS idx_selections_numero_bc ON selections(numero_bc);
`

// EnsureSchema creates the tables on boot if they do not exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}
