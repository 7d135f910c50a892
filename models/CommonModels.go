package models

import "time"

// ErrorResponse is the error envelope returned by the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// User is a buyer account. Suppliers never log in; they answer through the
// public per-RFQ link.
type User struct {
	ID         int       `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	MotDePasse string    `json:"-" db:"mot_de_passe"`
	Nom        string    `json:"nom" db:"nom"`
	Role       string    `json:"role" db:"role"`
	Actif      bool      `json:"actif" db:"actif"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Nom   string `json:"nom"`
	Role  string `json:"role"`
}
