package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsSuperuser  bool
	SellerID     *int64
	CreatedAt    time.Time
}

type Seller struct {
	ID           int64
	UserID       int64
	Username     string
	BusinessName string
	PhoneNumber  string
}

// DisplayName is the name stamped on products as their publisher.
func (s Seller) DisplayName() string {
	if s.BusinessName != "" {
		return s.BusinessName
	}
	return s.Username
}

type Category string

const (
	CategoryFood   Category = "food"
	CategoryCars   Category = "cars"
	CategoryBikes  Category = "bikes"
	CategoryPhones Category = "phones"
	CategoryLaptop Category = "laptop"
)

// Categories lists the catalog categories in display order.
var Categories = []Category{CategoryFood, CategoryCars, CategoryBikes, CategoryPhones, CategoryLaptop}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Product struct {
	ID            int64
	SellerID      int64
	PublisherName string
	Name          string
	Description   string
	ImageURL      string
	Quantity      int
	Price         decimal.Decimal
	Category      Category
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Available reports whether the product can be put in a cart or ordered.
func (p *Product) Available() bool {
	return p.IsActive && p.Quantity > 0
}

type ProductFilter struct {
	Search   string
	SellerID int64
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Category Category
	Limit    int
	Offset   int
}

type OrderItem struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	ProductName  string
	Quantity     int
	PriceAtOrder decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID             int64
	ClientID       int64
	ClientUsername string
	SellerID       int64
	SellerName     string
	Status         OrderStatus
	Items          []OrderItem
	CreatedAt      time.Time
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

type Notification struct {
	ID          int64
	SellerID    int64
	OrderID     int64
	Message     string
	IsRead      bool
	OrderStatus OrderStatus
	CreatedAt   time.Time
}

type WishlistItem struct {
	ID       int64
	ClientID int64
	Product  Product
	AddedAt  time.Time
}

// Feedback is a message left by a client or a seller. Exactly one of ClientID and SellerID is set.
type Feedback struct {
	ID         int64
	ClientID   int64
	SellerID   int64
	AuthorName string
	Message    string
	CreatedAt  time.Time
}

func (f Feedback) FromSeller() bool { return f.SellerID != 0 }

// WrittenBy reports whether p authored the entry.
func (f Feedback) WrittenBy(p Principal) bool {
	switch {
	case p.IsClient():
		return f.ClientID == p.ID
	case p.IsSeller():
		return f.SellerID == p.ID
	}
	return false
}

type SellerStats struct {
	ProductsCount  int
	OrdersCount    int
	PendingCount   int
	CompletedCount int
	TotalSales     decimal.Decimal
}

type SellerProductCount struct {
	SellerID     int64
	Username     string
	BusinessName string
	ProductCount int
}

type OrderPlacedEvent struct {
	EventID        string          `json:"event_id"`
	OrderID        int64           `json:"order_id"`
	SellerID       int64           `json:"seller_id"`
	ClientID       int64           `json:"client_id"`
	NotificationID int64           `json:"notification_id"`
	ProductIDs     []int64         `json:"product_ids"`
	Total          decimal.Decimal `json:"total"`
	Message        string          `json:"message"`
	RequestID      string          `json:"request_id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}
