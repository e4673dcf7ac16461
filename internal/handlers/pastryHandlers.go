package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"patisserie/internal/models"
	"patisserie/internal/services"
	"patisserie/internal/utils"
)

type PastryHandler struct {
	pastryService services.PastryService
}

func NewPastryHandler(pastryService services.PastryService) *PastryHandler {
	return &PastryHandler{pastryService: pastryService}
}

func (p *PastryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.PastryCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Create pastry")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	pastry, err := p.pastryService.Create(r.Context(), &payload)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, pastry)
}

func (p *PastryHandler) List(w http.ResponseWriter, r *http.Request) {
	skip := parseQueryInt(r, "skip", 0)
	limit := parseQueryInt(r, "limit", 20)

	pastries, err := p.pastryService.List(r.Context(), skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, pastries)
}

func (p *PastryHandler) Get(w http.ResponseWriter, r *http.Request) {
	pastryID, ok := pathObjectID(w, r, "id")
	if !ok {
		return
	}

	pastry, err := p.pastryService.Get(r.Context(), pastryID)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, pastry)
}

func (p *PastryHandler) Update(w http.ResponseWriter, r *http.Request) {
	pastryID, ok := pathObjectID(w, r, "id")
	if !ok {
		return
	}

	var payload models.PastryUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Update pastry")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	pastry, err := p.pastryService.Update(r.Context(), pastryID, &payload)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, pastry)
}

func (p *PastryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	pastryID, ok := pathObjectID(w, r, "id")
	if !ok {
		return
	}

	if err := p.pastryService.Delete(r.Context(), pastryID); err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusNoContent, nil)
}

// pathObjectID pulls a mux path variable and parses it as an ObjectID,
// answering 400 itself when the hex is malformed.
func pathObjectID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	raw := mux.Vars(r)[name]
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		utils.SendJSONError(w, "Invalid ID format", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseQueryInt(r *http.Request, name string, fallback int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
