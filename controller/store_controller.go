package controller

import (
	"net/http"

	"camgrocer/usecase"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type StoreController struct {
	usecase *usecase.StoreUsecase
	logger  *zap.Logger
}

func NewStoreController(usecase *usecase.StoreUsecase, logger *zap.Logger) *StoreController {
	return &StoreController{usecase: usecase, logger: logger}
}

func (c *StoreController) ListPublic(w http.ResponseWriter, r *http.Request) {
	stores, err := c.usecase.ListPublic(r.Context())
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

func (c *StoreController) Get(w http.ResponseWriter, r *http.Request) {
	s, err := c.usecase.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *StoreController) Create(w http.ResponseWriter, r *http.Request) {
	var in usecase.StoreInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	s, err := c.usecase.Create(r.Context(), mustActor(r), in)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (c *StoreController) ListMine(w http.ResponseWriter, r *http.Request) {
	stores, err := c.usecase.ListMine(r.Context(), mustActor(r))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

func (c *StoreController) Update(w http.ResponseWriter, r *http.Request) {
	var in usecase.StoreInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	s, err := c.usecase.Update(r.Context(), mustActor(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *StoreController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.usecase.Delete(r.Context(), mustActor(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *StoreController) ListAll(w http.ResponseWriter, r *http.Request) {
	stores, err := c.usecase.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

func (c *StoreController) Approve(w http.ResponseWriter, r *http.Request) {
	s, err := c.usecase.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *StoreController) Reject(w http.ResponseWriter, r *http.Request) {
	s, err := c.usecase.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
