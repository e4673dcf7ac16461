package database

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"patisserie/internal/config"
)

// Service wraps the MongoDB client that backs users, pastries, orders and
// (in the default deployment) OTP records.
type Service interface {
	Health() map[string]string
	Database() *mongo.Database
	Close() error
}

type service struct {
	client *mongo.Client
	dbName string
}

// New connects to MongoDB and ensures the unique indexes the write paths
// rely on. The connection lives for the whole process; Close tears it down
// at shutdown.
func New(cfg *config.Config) (Service, error) {
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	s := &service{client: client, dbName: cfg.MongoDatabase}
	if err := s.ensureIndexes(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to ensure database indexes")
		return nil, err
	}
	return s, nil
}

// ensureIndexes creates the unique e-mail indexes. The one on otps is what
// turns concurrent duplicate issuance into a storage-level conflict instead
// of two winning writes.
func (s *service) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	users := s.Database().Collection("users")
	if _, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return err
	}

	otps := s.Database().Collection("otps")
	_, err := otps.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	return err
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := s.client.Ping(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		return map[string]string{
			"message": "db down",
			"error":   err.Error(),
		}
	}

	return map[string]string{
		"message": "It's healthy",
	}
}

func (s *service) Database() *mongo.Database {
	return s.client.Database(s.dbName)
}

func (s *service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// NewRedisClient connects to the key-value store used by the cache-backed
// OTP ledger variant. Only called when OTP_STORE=redis.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is not set")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
