package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"patisserie/internal/common"
	"patisserie/internal/models"
	"patisserie/internal/repositories"
)

type PastryService interface {
	Create(ctx context.Context, payload *models.PastryCreate) (*models.Pastry, error)
	Get(ctx context.Context, pastryID primitive.ObjectID) (*models.Pastry, error)
	List(ctx context.Context, skip, limit int64) ([]models.Pastry, error)
	Update(ctx context.Context, pastryID primitive.ObjectID, payload *models.PastryUpdate) (*models.Pastry, error)
	Delete(ctx context.Context, pastryID primitive.ObjectID) error
}

type pastryService struct {
	pastryRepo repositories.PastryRepository
}

func NewPastryService(pastryRepo repositories.PastryRepository) PastryService {
	return &pastryService{pastryRepo: pastryRepo}
}

func (s *pastryService) Create(ctx context.Context, payload *models.PastryCreate) (*models.Pastry, error) {
	if payload.Name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrInvalidInput)
	}
	if payload.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", common.ErrInvalidInput)
	}
	if payload.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", common.ErrInvalidInput)
	}

	pastry := &models.Pastry{
		Name:        payload.Name,
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
		Price:       payload.Price,
		Stock:       payload.Stock,
	}
	return s.pastryRepo.Create(ctx, pastry)
}

func (s *pastryService) Get(ctx context.Context, pastryID primitive.ObjectID) (*models.Pastry, error) {
	return s.pastryRepo.FindByID(ctx, pastryID)
}

func (s *pastryService) List(ctx context.Context, skip, limit int64) ([]models.Pastry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	return s.pastryRepo.List(ctx, skip, limit)
}

func (s *pastryService) Update(ctx context.Context, pastryID primitive.ObjectID, payload *models.PastryUpdate) (*models.Pastry, error) {
	updateFields := bson.M{}
	if payload.Name != nil {
		if *payload.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", common.ErrInvalidInput)
		}
		updateFields["name"] = *payload.Name
	}
	if payload.Description != nil {
		updateFields["description"] = *payload.Description
	}
	if payload.ImageURL != nil {
		updateFields["image_url"] = *payload.ImageURL
	}
	if payload.Price != nil {
		if *payload.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be positive", common.ErrInvalidInput)
		}
		updateFields["price"] = *payload.Price
	}
	if payload.Stock != nil {
		if *payload.Stock < 0 {
			return nil, fmt.Errorf("%w: stock cannot be negative", common.ErrInvalidInput)
		}
		updateFields["stock"] = *payload.Stock
	}
	if len(updateFields) == 0 {
		return nil, fmt.Errorf("%w: no fields provided for update", common.ErrInvalidInput)
	}

	return s.pastryRepo.Update(ctx, pastryID, updateFields)
}

func (s *pastryService) Delete(ctx context.Context, pastryID primitive.ObjectID) error {
	return s.pastryRepo.SoftDelete(ctx, pastryID)
}
