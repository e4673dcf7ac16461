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

type PastryRepository interface {
	Create(ctx context.Context, pastry *models.Pastry) (*models.Pastry, error)
	FindByID(ctx context.Context, pastryID primitive.ObjectID) (*models.Pastry, error)
	List(ctx context.Context, skip, limit int64) ([]models.Pastry, error)
	Update(ctx context.Context, pastryID primitive.ObjectID, updateFields bson.M) (*models.Pastry, error)
	SoftDelete(ctx context.Context, pastryID primitive.ObjectID) error
	AdjustStock(ctx context.Context, pastryID primitive.ObjectID, delta float64) error
}

type pastryRepository struct {
	db database.Service
}

func NewPastryRepository(db database.Service) PastryRepository {
	return &pastryRepository{db: db}
}

func (r *pastryRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("pastries")
}

func (r *pastryRepository) Create(ctx context.Context, pastry *models.Pastry) (*models.Pastry, error) {
	queryType := "create"
	repository := "pastry"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	pastry.ID = primitive.NewObjectID()
	pastry.CreatedAt = time.Now()
	pastry.UpdatedAt = pastry.CreatedAt

	_, err := r.collection().InsertOne(ctx, pastry)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		log.Error().Err(err).Str("name", pastry.Name).Msg("Failed to insert pastry")
		return nil, fmt.Errorf("failed to create pastry: %w", err)
	}
	return pastry, nil
}

func (r *pastryRepository) FindByID(ctx context.Context, pastryID primitive.ObjectID) (*models.Pastry, error) {
	queryType := "findById"
	repository := "pastry"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	var pastry models.Pastry
	err := r.collection().FindOne(ctx, bson.M{"_id": pastryID, "is_deleted": false}).Decode(&pastry)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		if err == mongo.ErrNoDocuments {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pastry: %w", err)
	}
	return &pastry, nil
}

func (r *pastryRepository) List(ctx context.Context, skip, limit int64) ([]models.Pastry, error) {
	queryType := "list"
	repository := "pastry"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	opts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection().Find(ctx, bson.M{"is_deleted": false}, opts)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to list pastries: %w", err)
	}
	defer cursor.Close(ctx)

	pastries := []models.Pastry{}
	if err := cursor.All(ctx, &pastries); err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to decode pastries: %w", err)
	}
	return pastries, nil
}

func (r *pastryRepository) Update(ctx context.Context, pastryID primitive.ObjectID, updateFields bson.M) (*models.Pastry, error) {
	queryType := "update"
	repository := "pastry"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	updateFields["updated_at"] = time.Now()
	result, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": pastryID, "is_deleted": false},
		bson.M{"$set": updateFields})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		log.Error().Err(err).Str("pastry_id", pastryID.Hex()).Msg("Error updating pastry")
		return nil, fmt.Errorf("failed to update pastry: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, common.ErrNotFound
	}
	return r.FindByID(ctx, pastryID)
}

func (r *pastryRepository) SoftDelete(ctx context.Context, pastryID primitive.ObjectID) error {
	queryType := "softDelete"
	repository := "pastry"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	result, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": pastryID, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now()}})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		log.Error().Err(err).Str("pastry_id", pastryID.Hex()).Msg("Error deleting pastry")
		return fmt.Errorf("failed to delete pastry: %w", err)
	}
	if result.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

// AdjustStock decrements (or restores) stock with a guard so the level can
// never go negative under concurrent acceptance.
func (r *pastryRepository) AdjustStock(ctx context.Context, pastryID primitive.ObjectID, delta float64) error {
	queryType := "adjustStock"
	repository := "pastry"
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	filter := bson.M{"_id": pastryID, "is_deleted": false}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	result, err := r.collection().UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return common.ErrConflict
	}
	return nil
}
