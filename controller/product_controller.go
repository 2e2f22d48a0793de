package controller

import (
	"net/http"
	"strconv"

	"camgrocer/model"
	"camgrocer/usecase"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductController struct {
	usecase *usecase.ProductUsecase
	logger  *zap.Logger
}

func NewProductController(usecase *usecase.ProductUsecase, logger *zap.Logger) *ProductController {
	return &ProductController{usecase: usecase, logger: logger}
}

// ListPublic serves the catalogue: ?store=&category=&q=&limit=&offset=
func (c *ProductController) ListPublic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ProductFilter{
		StoreID:  q.Get("store"),
		Category: q.Get("category"),
		Search:   q.Get("q"),
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	products, err := c.usecase.ListPublic(r.Context(), f)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	p, err := c.usecase.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	var in usecase.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	p, err := c.usecase.Create(r.Context(), mustActor(r), in)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (c *ProductController) ListByStore(w http.ResponseWriter, r *http.Request) {
	products, err := c.usecase.ListByStore(r.Context(), mustActor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	var in usecase.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	p, err := c.usecase.Update(r.Context(), mustActor(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.usecase.Delete(r.Context(), mustActor(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ProductController) ListAll(w http.ResponseWriter, r *http.Request) {
	products, err := c.usecase.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (c *ProductController) Approve(w http.ResponseWriter, r *http.Request) {
	p, err := c.usecase.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *ProductController) Reject(w http.ResponseWriter, r *http.Request) {
	p, err := c.usecase.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
