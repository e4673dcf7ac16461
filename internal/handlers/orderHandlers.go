package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"patisserie/internal/middlewares"
	"patisserie/internal/models"
	"patisserie/internal/services"
	"patisserie/internal/utils"
)

type OrderHandler struct {
	orderService services.OrderService
	userService  services.UserService
}

func NewOrderHandler(orderService services.OrderService, userService services.UserService) *OrderHandler {
	return &OrderHandler{orderService: orderService, userService: userService}
}

// currentUser resolves the authenticated user behind the request token,
// answering the error itself when resolution fails.
func (o *OrderHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	claims, ok := middlewares.ClaimsFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Missing token", http.StatusUnauthorized)
		return nil, false
	}
	user, err := o.userService.GetByEmail(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return user, true
}

func (o *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := o.currentUser(w, r)
	if !ok {
		return
	}

	var payload models.OrderCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Create order")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := o.orderService.Create(r.Context(), user, &payload)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, order)
}

func (o *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := o.currentUser(w, r)
	if !ok {
		return
	}

	orders, err := o.orderService.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, orders)
}

func (o *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := o.currentUser(w, r)
	if !ok {
		return
	}

	orderID, ok := pathObjectID(w, r, "id")
	if !ok {
		return
	}

	order, err := o.orderService.Get(r.Context(), user, orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}

func (o *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathObjectID(w, r, "id")
	if !ok {
		return
	}

	var payload models.OrderUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid request body for UpdateStatus")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := o.orderService.UpdateStatus(r.Context(), orderID, &payload)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}
