package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"patisserie/internal/common"
	"patisserie/internal/database"
	"patisserie/internal/models"
	"patisserie/internal/utils"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus, adminMessage string) (*models.Order, error)
}

type orderRepository struct {
	db database.Service
}

func NewOrderRepository(db database.Service) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("orders")
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	queryType := "create"
	repository := "order"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	order.ID = primitive.NewObjectID()
	order.Status = models.OrderPending
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	_, err := r.collection().InsertOne(ctx, order)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		log.Error().Err(err).Str("user_id", order.UserID.Hex()).Msg("Failed to insert order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	queryType := "findById"
	repository := "order"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	var order models.Order
	err := r.collection().FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		if err == mongo.ErrNoDocuments {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, "listAll", bson.M{})
}

func (r *orderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.list(ctx, "listByUser", bson.M{"user_id": userID})
}

func (r *orderRepository) list(ctx context.Context, queryType string, filter bson.M) ([]models.Order, error) {
	repository := "order"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, orderStatus models.OrderStatus, adminMessage string) (*models.Order, error) {
	queryType := "updateStatus"
	repository := "order"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	update := bson.M{"$set": bson.M{
		"status":        orderStatus,
		"admin_message": adminMessage,
		"updated_at":    time.Now(),
	}}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": orderID}, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		log.Error().Err(err).Str("order_id", orderID.Hex()).Msg("Error updating order status")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, common.ErrNotFound
	}
	return r.FindByID(ctx, orderID)
}
