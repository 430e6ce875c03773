package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stashbox/service/internal/response"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type tokenRequest struct {
	APIKey   string `json:"apiKey"   example:"change_me_in_production"`
	ClientID string `json:"clientId" example:"dashboard"`
}

type tokenData struct {
	Token string `json:"token" example:"eyJhbGci..."`
}

// IssueToken godoc
//
//	@Summary		Issue access token
//	@Description	Exchange the configured API key for a JWT bearer token valid for 24 hours.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		tokenRequest	true	"API key and optional client ID"
//	@Success		200		{object}	response.Envelope{data=tokenData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Router			/auth/token [post]
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	token, err := h.svc.IssueToken(req.APIKey, req.ClientID)
	if err != nil {
		if errors.Is(err, ErrInvalidAPIKey) {
			response.Unauthorized(w, "invalid API key")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, tokenData{Token: token})
}
