package controller

import (
	"net/http"

	"camgrocer/usecase"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NegotiationController exposes the haggling dialogue. Dialogues are
// anonymous: whoever holds the session id may continue it.
type NegotiationController struct {
	usecase *usecase.NegotiationUsecase
	logger  *zap.Logger
}

func NewNegotiationController(usecase *usecase.NegotiationUsecase, logger *zap.Logger) *NegotiationController {
	return &NegotiationController{usecase: usecase, logger: logger}
}

type openRequest struct {
	Language string `json:"language"`
}

type offerRequest struct {
	Message string `json:"message"`
}

type languageRequest struct {
	Language string `json:"language"`
}

func (c *NegotiationController) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, c.logger, err)
			return
		}
	}
	s, err := c.usecase.Open(r.Context(), chi.URLParam(r, "id"), req.Language)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (c *NegotiationController) Get(w http.ResponseWriter, r *http.Request) {
	s, err := c.usecase.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *NegotiationController) Close(w http.ResponseWriter, r *http.Request) {
	if err := c.usecase.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *NegotiationController) Submit(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	reply, err := c.usecase.Submit(chi.URLParam(r, "id"), req.Message)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (c *NegotiationController) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	s, err := c.usecase.SetLanguage(chi.URLParam(r, "id"), req.Language)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *NegotiationController) Commit(w http.ResponseWriter, r *http.Request) {
	deal, err := c.usecase.Commit(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}
