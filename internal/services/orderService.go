package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"patisserie/internal/common"
	"patisserie/internal/models"
	"patisserie/internal/repositories"
	"patisserie/internal/utils"
)

type OrderService interface {
	Create(ctx context.Context, user *models.User, payload *models.OrderCreate) (*models.Order, error)
	List(ctx context.Context, user *models.User) ([]models.Order, error)
	Get(ctx context.Context, user *models.User, orderID primitive.ObjectID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID primitive.ObjectID, payload *models.OrderUpdate) (*models.Order, error)
}

type orderService struct {
	orderRepo  repositories.OrderRepository
	pastryRepo repositories.PastryRepository
}

func NewOrderService(orderRepo repositories.OrderRepository, pastryRepo repositories.PastryRepository) OrderService {
	return &orderService{orderRepo: orderRepo, pastryRepo: pastryRepo}
}

// Create validates the requested items against the catalog. Stock is only
// checked here; it is not decremented until an admin accepts the order.
func (s *orderService) Create(ctx context.Context, user *models.User, payload *models.OrderCreate) (*models.Order, error) {
	if payload.Address == "" || payload.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: address and phone number are required", common.ErrInvalidInput)
	}
	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", common.ErrInvalidInput)
	}

	for _, item := range payload.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", common.ErrInvalidInput)
		}
		pastry, err := s.pastryRepo.FindByID(ctx, item.PastryID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("%w: pastry %s not found", common.ErrNotFound, item.PastryID.Hex())
			}
			return nil, err
		}
		if pastry.Stock < item.Quantity {
			return nil, fmt.Errorf("%w: insufficient stock for pastry %s", common.ErrInvalidInput, pastry.Name)
		}
	}

	order := &models.Order{
		UserID:      user.ID,
		Address:     payload.Address,
		PhoneNumber: payload.PhoneNumber,
		Items:       payload.Items,
	}
	created, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	utils.OrdersPlacedTotal.Inc()
	log.Info().Str("order_id", created.ID.Hex()).Str("user_id", user.ID.Hex()).Msg("Order placed")
	return created, nil
}

func (s *orderService) List(ctx context.Context, user *models.User) ([]models.Order, error) {
	if user.IsAdmin {
		return s.orderRepo.ListAll(ctx)
	}
	return s.orderRepo.ListByUser(ctx, user.ID)
}

func (s *orderService) Get(ctx context.Context, user *models.User, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin && order.UserID != user.ID {
		return nil, common.ErrForbidden
	}
	return order, nil
}

// UpdateStatus moves an order through fulfillment. Accepting a pending order
// decrements pastry stock; a shortage discovered at acceptance time aborts
// before the status changes, restoring whatever was already taken.
func (s *orderService) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, payload *models.OrderUpdate) (*models.Order, error) {
	newStatus, err := models.ParseOrderStatus(payload.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if newStatus == models.OrderAccepted && order.Status == models.OrderPending {
		taken := make([]models.OrderItem, 0, len(order.Items))
		for _, item := range order.Items {
			if err := s.pastryRepo.AdjustStock(ctx, item.PastryID, -item.Quantity); err != nil {
				for _, t := range taken {
					if restoreErr := s.pastryRepo.AdjustStock(ctx, t.PastryID, t.Quantity); restoreErr != nil {
						log.Error().Err(restoreErr).Str("pastry_id", t.PastryID.Hex()).Msg("Failed to restore stock after aborted acceptance")
					}
				}
				if errors.Is(err, common.ErrConflict) {
					return nil, fmt.Errorf("%w: insufficient stock for pastry %s", common.ErrInvalidInput, item.PastryID.Hex())
				}
				return nil, err
			}
			taken = append(taken, item)
		}
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, orderID, newStatus, payload.AdminMessage)
	if err != nil {
		return nil, err
	}
	log.Info().Str("order_id", orderID.Hex()).Str("status", string(newStatus)).Msg("Order status updated")
	return updated, nil
}
