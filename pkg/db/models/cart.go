package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// Cart is the storefront cart whose total the checkout engine allocates against.
type Cart struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Status      enums.CartStatus    `gorm:"column:status;not null;default:'active'"`
	Currency    enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	TotalAmount decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Summary     *types.OrderSummary `gorm:"column:summary;type:jsonb;serializer:json"`
	SubmittedAt *time.Time          `gorm:"column:submitted_at"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cart) TableName() string {
	return "carts"
}
