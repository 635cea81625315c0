package api

import (
	"net/http"

	"github.com/dmitrijs2005/cityfix/internal/server/auth"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

const tokenType = "bearer"

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role := models.RoleCitizen
	if req.Role != "" {
		role = models.Role(req.Role)
	}

	user, token, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{AccessToken: token, TokenType: tokenType, User: newUserResponse(user)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: tokenType, User: newUserResponse(user)})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	user, err := h.users.Get(r.Context(), p.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}
