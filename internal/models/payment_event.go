package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	GatewayEventReceived  = "received"
	GatewayEventProcessed = "processed"
	GatewayEventIgnored   = "ignored"
	GatewayEventFailed    = "failed"
)

type PaymentGatewayEvent struct {
	ID            uint   `gorm:"primaryKey"`
	Provider      string `gorm:"not null"`
	EventType     string `gorm:"not null"`
	OrderID       string `gorm:"index"`
	PaymentID     string
	ApplicationID *uint
	Payload       datatypes.JSON
	Status        string `gorm:"not null;default:received"`
	Message       string
	ReceivedAt    time.Time `gorm:"not null"`
}
