package handlers

import (
	"database/sql"
	"net/http"

	"fluxachat/models"
	"fluxachat/utils"

	"github.com/gin-gonic/gin"
)

// Login authenticates a buyer account.
// @Summary Buyer login
// @Description Authenticates a buyer with email and password, returns a JWT access token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/login [post]
func Login(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		query := `SELECT id, email, mot_de_passe, nom, role, actif FROM utilisateurs WHERE LOWER(email) = LOWER($1)`
		var user models.User
		err := db.QueryRow(query, req.Email).Scan(&user.ID, &user.Email, &user.MotDePasse,
			&user.Nom, &user.Role, &user.Actif)
		if err != nil || !user.Actif {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if !utils.ValidatePassword(user.MotDePasse, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := utils.GenerateJWT(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			Token: token,
			Email: user.Email,
			Nom:   user.Nom,
			Role:  user.Role,
		})
	}
}
