package controller

import (
	"net/http"

	"camgrocer/usecase"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderController struct {
	usecase *usecase.OrderUsecase
	logger  *zap.Logger
}

func NewOrderController(usecase *usecase.OrderUsecase, logger *zap.Logger) *OrderController {
	return &OrderController{usecase: usecase, logger: logger}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (c *OrderController) Place(w http.ResponseWriter, r *http.Request) {
	var in usecase.PlaceOrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	o, err := c.usecase.Place(r.Context(), mustActor(r), in)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (c *OrderController) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := c.usecase.ListMine(r.Context(), mustActor(r))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	o, err := c.usecase.Get(r.Context(), mustActor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	o, err := c.usecase.UpdateStatus(r.Context(), mustActor(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (c *OrderController) ListForStore(w http.ResponseWriter, r *http.Request) {
	orders, err := c.usecase.ListForStore(r.Context(), mustActor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (c *OrderController) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := c.usecase.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
