package handler

import (
	"errors"
	"net/http"

	"rental-service/internal/model"
	"rental-service/internal/repository"
	"rental-service/pkg/jwtutil"
	"rental-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterOwner creates a new property owner account
func RegisterOwner(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		log.Warn("Validation failed for owner registration")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Name, email and password are required",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to process registration",
		})
	}

	owner := model.Owner{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	}
	if err := store.CreateOwner(c.Request().Context(), &owner); err != nil {
		log.Error("Failed to create owner", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to register owner",
		})
	}

	return c.JSON(http.StatusCreated, owner)
}

// LoginOwner authenticates an owner and issues a JWT
func LoginOwner(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}

	owner, err := store.OwnerByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error":             "invalid_credentials",
				"error_description": "Unknown email or wrong password",
			})
		}
		log.Error("Failed to look up owner", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to process login",
		})
	}

	if bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(req.Password)) != nil {
		log.Warn("Wrong password", zap.String("email", req.Email))
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":             "invalid_credentials",
			"error_description": "Unknown email or wrong password",
		})
	}

	token, err := jwtutil.GenerateToken(owner.ID, owner.Email, cfg.JWT.ExpirationTime)
	if err != nil {
		log.Error("Failed to issue token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to issue token",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(cfg.JWT.ExpirationTime.Seconds()),
		"owner":        owner,
	})
}
