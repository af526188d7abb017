package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nk2109/pantry/internal/core/service"
)

type HTTPHandler struct {
	pantry *service.PantryService
}

func NewHTTPHandler(pantry *service.PantryService) *HTTPHandler {
	return &HTTPHandler{pantry: pantry}
}

// Register wires every route onto the mux. The handler only shuttles JSON;
// all date arithmetic and status derivation happens in the core.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /api/ingredients", h.List)
	mux.HandleFunc("POST /api/ingredients", h.Create)
	mux.HandleFunc("PATCH /api/ingredients/{id}", h.Update)
	mux.HandleFunc("DELETE /api/ingredients/{id}", h.Delete)
	mux.HandleFunc("POST /api/ingredients/{id}/buy", h.Buy)
	mux.HandleFunc("GET /api/ingredients/summary", h.Summary)
	mux.HandleFunc("GET /api/ingredients/name-exists", h.NameExists)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateIngredientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	created, err := h.pantry.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateIngredientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	updated, err := h.pantry.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
		return
	}
	if updated == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "ingredient not found"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.pantry.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "ingredient not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type buyHTTPRequest struct {
	PurchasedQty float64 `json:"purchased_qty"`
}

// Buy always answers 200 with the discriminated result; callers branch on
// the success flag, not the status code.
func (h *HTTPHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req buyHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	res := h.pantry.Buy(r.Context(), service.BuyRequest{
		IngredientID: r.PathValue("id"),
		PurchasedQty: req.PurchasedQty,
	})
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.pantry.ListWithSpoilage(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *HTTPHandler) Summary(w http.ResponseWriter, r *http.Request) {
	report, err := h.pantry.SpoilageSummary(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *HTTPHandler) NameExists(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "name parameter is required"})
		return
	}

	exists, err := h.pantry.NameExists(r.Context(), name, r.URL.Query().Get("exclude"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
