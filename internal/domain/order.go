package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderReturned  OrderStatus = "RETURNED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

type Order struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	UserID int64  `json:"user_id" gorm:"index;not null"`
	User   User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	Status       OrderStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	OrderDate    time.Time   `json:"order_date" gorm:"not null"`
	DeliveryDate *time.Time  `json:"delivery_date"`

	Items           []OrderItem      `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress *ShippingAddress `json:"shipping_address" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Billing         *Billing         `json:"billing" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *Payment         `json:"payment" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	OrderID     string          `json:"-" gorm:"size:36;index;not null"`
	ProductID   int64           `json:"product_id" gorm:"index;not null"`
	ProductName string          `json:"product_name" gorm:"size:255;not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	TotalPrice  decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
}

type ShippingAddress struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	OrderID     string `json:"-" gorm:"size:36;uniqueIndex;not null"`
	FullAddress string `json:"full_address" gorm:"type:text;not null"`
	City        string `json:"city" gorm:"size:100;not null"`
	State       string `json:"state" gorm:"size:100;not null"`
	Pincode     string `json:"pincode" gorm:"size:10;not null"`
}

type Billing struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	OrderID         string          `json:"-" gorm:"size:36;uniqueIndex;not null"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	Discount        decimal.Decimal `json:"discount" gorm:"type:decimal(12,2);not null"`
	Tax             decimal.Decimal `json:"tax" gorm:"type:decimal(12,2);not null"`
	ShippingCharges decimal.Decimal `json:"shipping_charges" gorm:"type:decimal(12,2);not null"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
}
