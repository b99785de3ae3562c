package handlers

//go:generate mockgen -source=signup.go -destination=signup_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/bank-ledger/internal/logger"
	"github.com/sbilibin2017/bank-ledger/internal/models"
)

// SignUper defines the interface that the signup service must implement.
type SignUper interface {
	SignUp(ctx context.Context, c models.NewCustomer) (*models.SignUpResult, error)
}

// SignUpRequest represents the JSON body for opening a customer profile
// swagger:model SignUpRequest
type SignUpRequest struct {
	// Full name
	// required: true
	// default: Mary Ann Stevenson
	Name string `json:"name" validate:"required,max=100"`

	// Email address
	// required: true
	// default: mary@example.com
	Email string `json:"email" validate:"required,email,max=100"`

	// Phone number
	// default: +10000000000
	Phone string `json:"phone" validate:"max=30"`

	// Postal address
	// default: 1 Main St
	Address string `json:"address" validate:"max=255"`
}

// SignUpResponse carries the generated credentials. The password is shown only once.
// swagger:model SignUpResponse
type SignUpResponse struct {
	CustomerID int64  `json:"customer_id"`
	AccountNo  int64  `json:"account_no"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// NewSignUpHandler returns an HTTP handler for customer signup.
// @Summary Customer signup
// @Description Create a customer with one zero-balance account and generated login credentials
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.SignUpRequest true "Signup Request"
// @Success 201 {object} handlers.SignUpResponse "Customer created"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Failure 409 {object} handlers.ErrorResponse "No free username"
// @Failure 503 {object} handlers.ErrorResponse "Service temporarily unavailable"
// @Router /signup [post]
func NewSignUpHandler(svc SignUper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignUpRequest
		if err := decodeRequest(r, &req); err != nil {
			logger.Log.Warnw("invalid signup request", "error", err)
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		res, err := svc.SignUp(r.Context(), models.NewCustomer{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Address: req.Address,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, SignUpResponse{
			CustomerID: res.CustomerID,
			AccountNo:  res.AccountNo,
			Username:   res.Username,
			Password:   res.Password,
		})
	}
}
