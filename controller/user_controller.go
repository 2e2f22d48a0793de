package controller

import (
	"net/http"

	"camgrocer/usecase"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserController struct {
	usecase *usecase.UserUsecase
	logger  *zap.Logger
}

func NewUserController(usecase *usecase.UserUsecase, logger *zap.Logger) *UserController {
	return &UserController{usecase: usecase, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func (c *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	user, err := c.usecase.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (c *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	tok, err := c.usecase.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	user, err := c.usecase.Me(r.Context(), mustActor(r).ID)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	users, err := c.usecase.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (c *UserController) SetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	user, err := c.usecase.SetRole(r.Context(), mustActor(r), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (c *UserController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.usecase.DeleteUser(r.Context(), mustActor(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
