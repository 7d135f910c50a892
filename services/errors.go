package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the procurement core. Every public operation maps
// a failure to one of these so the caller can render an actionable message.
const (
	KindInvalidTransition      = "InvalidTransition"
	KindUnknownRFQ             = "UnknownRFQ"
	KindUnknownQuoteLine       = "UnknownQuoteLine"
	KindInvalidPrice           = "InvalidPrice"
	KindInvalidQuantity        = "InvalidQuantity"
	KindSelectionLocked        = "SelectionLocked"
	KindBlacklistedSupplier    = "BlacklistedSupplier"
	KindOrderGenerationAborted = "OrderGenerationAborted"
	KindLateResponse           = "LateResponse"
)

// DomainError carries the taxonomy kind plus the offending identifiers.
type DomainError struct {
	Kind            string `json:"kind"`
	RFQUUID         string `json:"rfq_uuid,omitempty"`
	NumeroDA        string `json:"numero_da,omitempty"`
	CodeArticle     string `json:"code_article,omitempty"`
	CodeFournisseur string `json:"code_fournisseur,omitempty"`
	Message         string `json:"message"`
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// AsDomainError unwraps err into a DomainError, or nil.
func AsDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

func errUnknownRFQ(uuid string) error {
	return &DomainError{Kind: KindUnknownRFQ, RFQUUID: uuid, Message: "RFQ introuvable"}
}

func errLateResponse(uuid, statut string) error {
	return &DomainError{
		Kind:    KindLateResponse,
		RFQUUID: uuid,
		Message: fmt.Sprintf("RFQ deja %s, reponse tardive ignoree", statut),
	}
}

func errInvalidTransition(uuid, statut, event string) error {
	return &DomainError{
		Kind:    KindInvalidTransition,
		RFQUUID: uuid,
		Message: fmt.Sprintf("evenement %s illegal depuis l'etat %s", event, statut),
	}
}
