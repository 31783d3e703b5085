package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	Name           string
	Role           string
	Phone          pgtype.Text
	BranchID       pgtype.UUID
	IsActive       bool
	CreatedAt      time.Time
}

type Branch struct {
	ID        uuid.UUID
	Name      string
	Address   string
	Phone     string
	Email     string
	Latitude  pgtype.Float8
	Longitude pgtype.Float8
	IsActive  bool
	CreatedAt time.Time
}

type MenuCategory struct {
	ID           uuid.UUID
	Name         string
	Description  pgtype.Text
	DisplayOrder int32
	IsActive     bool
	CreatedAt    time.Time
}

type MenuItem struct {
	ID           uuid.UUID
	Name         string
	Description  pgtype.Text
	CategoryID   uuid.UUID
	BasePrice    pgtype.Numeric
	ImageURL     pgtype.Text
	IsVegetarian bool
	IsAvailable  bool
	BranchIDs    []uuid.UUID // nil means available at all branches
	CreatedAt    time.Time
}

type Table struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	TableNumber    string
	Capacity       int32
	Location       pgtype.Text
	Status         string
	CurrentOrderID pgtype.UUID
	CreatedAt      time.Time
}

type DeliveryPartner struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	BranchID       uuid.UUID
	Name           string
	Phone          pgtype.Text
	VehicleType    pgtype.Text
	VehicleNumber  pgtype.Text
	Status         string
	CurrentOrderID pgtype.UUID
	CreatedAt      time.Time
}

// OrderLineItem is a single ordered line, stored inside the order row as
// JSONB. Prices are fixed-point decimal strings.
type OrderLineItem struct {
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	MenuItemName string    `json:"menu_item_name"`
	Quantity     int32     `json:"quantity"`
	UnitPrice    string    `json:"unit_price"`
	TotalPrice   string    `json:"total_price"`
}

type Order struct {
	ID                  uuid.UUID
	OrderNumber         string
	CustomerID          pgtype.UUID
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       pgtype.Text
	BranchID            uuid.UUID
	OrderType           string
	Items               []OrderLineItem
	Subtotal            pgtype.Numeric
	Tax                 pgtype.Numeric
	Total               pgtype.Numeric
	Status              string
	PaymentMethod       string
	PaymentStatus       string
	DeliveryAddress     pgtype.Text
	TableID             pgtype.UUID
	DeliveryPartnerID   pgtype.UUID
	SpecialInstructions pgtype.Text
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Coupon struct {
	ID            uuid.UUID
	Code          string
	Description   pgtype.Text
	DiscountType  string
	DiscountValue pgtype.Numeric
	MinOrderValue pgtype.Numeric
	MaxDiscount   pgtype.Numeric
	ValidFrom     time.Time
	ValidUntil    time.Time
	UsageLimit    pgtype.Int4
	PerUserLimit  pgtype.Int4
	UsageCount    int32
	BranchIDs     []uuid.UUID
	IsActive      bool
	CreatedAt     time.Time
}

type Offer struct {
	ID            uuid.UUID
	Title         string
	Description   string
	DiscountType  string
	DiscountValue pgtype.Numeric
	MinOrderValue pgtype.Numeric
	ValidFrom     time.Time
	ValidUntil    time.Time
	BranchIDs     []uuid.UUID
	IsActive      bool
	CreatedAt     time.Time
}

type Review struct {
	ID           uuid.UUID
	CustomerID   pgtype.UUID
	CustomerName string
	BranchID     uuid.UUID
	OrderID      pgtype.UUID
	Rating       int32
	Comment      pgtype.Text
	IsApproved   bool
	CreatedAt    time.Time
}
