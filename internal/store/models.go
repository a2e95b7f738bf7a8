package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/soukly/mirsal/pkg/carrier"
	"gorm.io/gorm"
)

// CarrierConfig is the persisted configuration for one carrier adapter.
// Written by the administrative surface; this service only reads it and
// reloads the registry on change.
type CarrierConfig struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"uniqueIndex;not null"`
	DisplayName string
	Active      bool `gorm:"index"`
	// Credentials is an opaque JSON blob; each adapter decodes its own shape.
	Credentials string
	// Services is a JSON-encoded []carrier.ServiceCode.
	Services string
	BaseFee   float64
	PerKgRate float64
	Currency  string
	Features  string // JSON-encoded carrier.Features
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns an ID if one is not set.
func (c *CarrierConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ToSettings converts the stored row into the adapter construction input.
func (c *CarrierConfig) ToSettings() (carrier.Settings, error) {
	s := carrier.Settings{
		Name:        c.Name,
		DisplayName: c.DisplayName,
		Active:      c.Active,
		Pricing: carrier.Pricing{
			BaseFee:   c.BaseFee,
			PerKgRate: c.PerKgRate,
			Currency:  c.Currency,
		},
	}
	if c.Credentials != "" {
		s.Credentials = json.RawMessage(c.Credentials)
	}
	if c.Services != "" {
		if err := json.Unmarshal([]byte(c.Services), &s.Services); err != nil {
			return carrier.Settings{}, err
		}
	}
	if c.Features != "" {
		if err := json.Unmarshal([]byte(c.Features), &s.Features); err != nil {
			return carrier.Settings{}, err
		}
	}
	return s, nil
}

// Shipment is the durable record of one created shipment. Rows are never
// deleted; cancellation only changes the status.
type Shipment struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderRef          string    `gorm:"index;not null"`
	Carrier           string    `gorm:"not null"`
	ServiceCode       string
	CarrierShipmentID string
	TrackingNumber    string `gorm:"uniqueIndex;not null"`
	TrackingURL       string
	LabelURL          string
	Status            string `gorm:"index"`
	// Address snapshot at creation time, JSON-encoded carrier.Address.
	Origin            string
	Destination       string
	WeightKg          float64
	DeclaredValue     float64
	CostAmount        float64
	CostCurrency      string
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time

	Events []ShipmentEvent `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns an ID if one is not set.
func (s *Shipment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ShipmentEvent is one entry in a shipment's append-only tracking history.
type ShipmentEvent struct {
	ID          uint      `gorm:"primaryKey"`
	ShipmentID  uuid.UUID `gorm:"type:uuid;index;not null"`
	OccurredAt  time.Time `gorm:"index"`
	Status      string
	Description string
	Location    string
	CreatedAt   time.Time
}

// Order is the denormalized order projection: buyer, seller, product, an
// embedded payment block, a status timeline, and a shipping sub-record.
type Order struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	BuyerID       string    `gorm:"index;not null"`
	SellerID      string    `gorm:"index;not null"`
	ProductID     string
	PaymentMethod string // escrow | standard | other
	Status        string `gorm:"index"`
	// Embedded payment block.
	PaymentStatus string
	Amount        float64
	Currency      string

	// Shipping sub-record.
	ShippingCarrier        string
	ShippingServiceCode    string
	ShippingTrackingNumber string
	ShippingCostAmount     float64
	ShippingCostCurrency   string
	ShippingOrigin         string // JSON-encoded carrier.Address
	ShippingDestination    string

	Timeline []OrderEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns an ID if one is not set.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderEvent is one entry in an order's append-only status timeline.
type OrderEvent struct {
	ID        uint      `gorm:"primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Status    string
	Note      string
	ActorRole string // buyer | seller | system
	CreatedAt time.Time
}

// Payment is the standard (direct) payment record shape.
type Payment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderRef string    `gorm:"index;not null"`
	BuyerID  string
	SellerID string
	Amount   float64
	Currency string
	// Status is this shape's own payment-status vocabulary
	// (pending, completed, paid, shipped, failed, cancelled).
	Status string
	// OrderStatus is the explicit reconciled override; empty means none.
	OrderStatus    string
	TrackingNumber string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BeforeCreate assigns an ID if one is not set.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EscrowPayment is the escrow payment record shape. It wraps an inner
// EscrowTransaction whose status evolves independently.
type EscrowPayment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderRef string    `gorm:"index;not null"`
	BuyerID  string
	SellerID string
	Amount   float64
	Currency string
	// Status is the outer record's own status (pending, confirmed, released,
	// refunded). It can lag behind the inner transaction.
	Status         string
	OrderStatus    string
	TrackingNumber string
	Notes          string

	TransactionID uuid.UUID         `gorm:"type:uuid;index"`
	Transaction   EscrowTransaction `gorm:"foreignKey:TransactionID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns an ID if one is not set.
func (p *EscrowPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EscrowTransaction is the inner escrow ledger record.
type EscrowTransaction struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// OrderRef lets the transaction be found directly, ahead of its wrapper.
	OrderRef string `gorm:"index"`
	// Status uses the escrow vocabulary (funds_held, released, refunded).
	Status      string
	OrderStatus string
	ReleasedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BeforeCreate assigns an ID if one is not set.
func (t *EscrowTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// DeliveryOption is a buyer's saved delivery preference. At most one row per
// user carries the default flag.
type DeliveryOption struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      string    `gorm:"index;not null"`
	Carrier     string    `gorm:"not null"`
	ServiceCode string
	IsDefault   bool `gorm:"index"`
	// Settings holds pickup/drop-off/local-delivery preferences, JSON-encoded.
	Settings  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns an ID if one is not set.
func (d *DeliveryOption) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// ReconciliationReceipt stores the outcome of an idempotent status update so
// webhook replays return the original result instead of re-running the
// transition.
type ReconciliationReceipt struct {
	Key       string `gorm:"primaryKey"`
	OrderRef  string `gorm:"index"`
	Status    string
	CreatedAt time.Time
}
