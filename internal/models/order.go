package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the closed set of fulfillment states.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderAccepted OrderStatus = "accepted"
	OrderRejected OrderStatus = "rejected"
)

// ParseOrderStatus validates a raw status string at the request boundary.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderPending, OrderAccepted, OrderRejected:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

type OrderItem struct {
	PastryID primitive.ObjectID `json:"pastry_id" bson:"pastry_id"`
	Quantity float64            `json:"quantity" bson:"quantity"`
}

type Order struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id"`
	Address      string             `json:"address" bson:"address"`
	PhoneNumber  string             `json:"phone_number" bson:"phone_number"`
	Items        []OrderItem        `json:"items" bson:"items"`
	Status       OrderStatus        `json:"status" bson:"status"`
	AdminMessage string             `json:"admin_message,omitempty" bson:"admin_message,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

type OrderCreate struct {
	Address     string      `json:"address"`
	PhoneNumber string      `json:"phone_number"`
	Items       []OrderItem `json:"items"`
}

type OrderUpdate struct {
	Status       string `json:"status"`
	AdminMessage string `json:"admin_message,omitempty"`
}
