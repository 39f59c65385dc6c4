package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Worker struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	DisplayName  string
	Position     string
	Salary       pgtype.Numeric
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RestaurantTable struct {
	ID       uuid.UUID
	Name     string
	X        int32
	Y        int32
	IsActive bool
}

type Addition struct {
	ID          uuid.UUID
	Name        string
	Price       pgtype.Numeric
	IsAvailable bool
}

type MenuItem struct {
	ID          uuid.UUID
	Menu        pgtype.Text
	SubMenu     pgtype.Text
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Location    string
	IsAvailable bool
	CreatedAt   time.Time
}

type Bill struct {
	ID              uuid.UUID
	Status          string
	CreatedAt       time.Time
	ClosedAt        pgtype.Timestamptz
	ServiceWorkerID pgtype.UUID
	Note            pgtype.Text
	Discount        int32
	PaymentMethod   string
	GuestCount      int32
}

type Order struct {
	ID          uuid.UUID
	BillID      uuid.UUID
	Status      string
	Category    string
	CreatedAt   time.Time
	PreparingAt pgtype.Timestamptz
	ReadiedAt   pgtype.Timestamptz
	PaidAt      pgtype.Timestamptz
	CanceledAt  pgtype.Timestamptz
}

type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	MenuItemID    uuid.UUID
	NameSnapshot  string
	PriceSnapshot pgtype.Numeric
	Note          pgtype.Text
	Status        string
	CreatedAt     time.Time
	StartedAt     pgtype.Timestamptz
	FinishedAt    pgtype.Timestamptz
	Quantity      int32
	TotalCost     pgtype.Numeric
}

type OrderItemAddition struct {
	ID            uuid.UUID
	OrderItemID   uuid.UUID
	AdditionID    uuid.UUID
	NameSnapshot  string
	PriceSnapshot pgtype.Numeric
}

type Notification struct {
	ID          uuid.UUID
	WorkerID    uuid.UUID
	OrderItemID uuid.UUID
	Status      string
	CreatedAt   time.Time
	LastUpdate  time.Time
}
