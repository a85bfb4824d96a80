package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/go-marketplace/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RegisterSellerRequest struct {
	RegisterRequest
	BusinessName string `json:"business_name" validate:"max=200"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Principal PrincipalResponse `json:"principal"`
}

type PrincipalResponse struct {
	Role     model.Role `json:"role"`
	ID       int64      `json:"id"`
	Username string     `json:"username"`
}

// --- Product ---

type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url,max=2000"`
	Quantity    int             `json:"quantity" validate:"min=0,max=2147483647"`
	Price       decimal.Decimal `json:"price"`
	Category    model.Category  `json:"category" validate:"required,oneof=food cars bikes phones laptop"`
}

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search   string `form:"q"`
	SellerID int64  `form:"seller"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
	Category string `form:"category"`
}

type ProductResponse struct {
	ID            int64           `json:"id"`
	SellerID      int64           `json:"seller_id"`
	PublisherName string          `json:"publisher_name"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Category      model.Category  `json:"category"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type MarketSection struct {
	Category model.Category    `json:"category"`
	Products []ProductResponse `json:"products"`
}

type MarketResponse struct {
	SellerID     int64           `json:"seller_id"`
	SellerName   string          `json:"seller_name"`
	Sections     []MarketSection `json:"sections"`
	CartQuantity int             `json:"cart_quantity"`
}

func ToProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		SellerID:      p.SellerID,
		PublisherName: p.PublisherName,
		Name:          p.Name,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Quantity:      p.Quantity,
		Price:         p.Price,
		Category:      p.Category,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func ToProductResponses(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out
}

// --- Cart ---

type AddCartItemRequest struct {
	SellerID  int64 `json:"seller_id" binding:"required,min=1"`
	ProductID int64 `json:"product_id" binding:"required,min=1"`
	Quantity  int   `json:"quantity"`
}

type CartLineResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	SellerID int64              `json:"seller_id,omitempty"`
	Lines    []CartLineResponse `json:"lines"`
	Total    decimal.Decimal    `json:"total"`
}

func ToCartResponse(v *model.CartView) CartResponse {
	resp := CartResponse{Lines: []CartLineResponse{}, Total: decimal.Zero}
	if v == nil {
		return resp
	}
	resp.SellerID = v.SellerID
	resp.Total = v.Total
	for _, l := range v.Lines {
		resp.Lines = append(resp.Lines, CartLineResponse{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal,
		})
	}
	return resp
}

// --- Checkout ---

// PaymentRequest is the demo payment form. Nothing is charged.
type PaymentRequest struct {
	Method      string `json:"method" validate:"required,oneof=card dzd_pay"`
	Cardholder  string `json:"cardholder" validate:"required,max=120"`
	CardNumber  string `json:"card_number" validate:"required,number,min=13,max=19"`
	ExpiryMonth int    `json:"expiry_month" validate:"required,min=1,max=12"`
	ExpiryYear  int    `json:"expiry_year" validate:"required,min=2020,max=2040"`
	CVV         string `json:"cvv" validate:"required,number,min=3,max=4"`
}

// --- Order ---

type OrderItemResponse struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID             int64               `json:"id"`
	ClientID       int64               `json:"client_id"`
	ClientUsername string              `json:"client_username,omitempty"`
	SellerID       int64               `json:"seller_id"`
	SellerName     string              `json:"seller_name,omitempty"`
	Status         model.OrderStatus   `json:"status"`
	Total          decimal.Decimal     `json:"total"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

func ToOrderResponse(o *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			PriceAtOrder: it.PriceAtOrder,
			Subtotal:     it.Subtotal(),
		})
	}
	return OrderResponse{
		ID:             o.ID,
		ClientID:       o.ClientID,
		ClientUsername: o.ClientUsername,
		SellerID:       o.SellerID,
		SellerName:     o.SellerName,
		Status:         o.Status,
		Total:          o.Total(),
		Items:          items,
		CreatedAt:      o.CreatedAt,
	}
}

func ToOrderListResponse(orders []model.Order) OrderListResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return OrderListResponse{Orders: out, Total: len(out)}
}

// --- Feedback ---

type FeedbackRequest struct {
	Message string `json:"message" validate:"required,max=500"`
}

type FeedbackResponse struct {
	ID         int64     `json:"id"`
	AuthorName string    `json:"author_name"`
	FromSeller bool      `json:"from_seller"`
	IsOwn      bool      `json:"is_own"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToFeedbackResponse marks entries written by viewer as own.
func ToFeedbackResponse(f *model.Feedback, viewer model.Principal) FeedbackResponse {
	return FeedbackResponse{
		ID:         f.ID,
		AuthorName: f.AuthorName,
		FromSeller: f.FromSeller(),
		IsOwn:      f.WrittenBy(viewer),
		Message:    f.Message,
		CreatedAt:  f.CreatedAt,
	}
}

func ToFeedbackListResponse(entries []model.Feedback, viewer model.Principal) []FeedbackResponse {
	out := make([]FeedbackResponse, 0, len(entries))
	for i := range entries {
		out = append(out, ToFeedbackResponse(&entries[i], viewer))
	}
	return out
}

// --- Notifications ---

type NotificationResponse struct {
	ID          int64             `json:"id"`
	OrderID     int64             `json:"order_id"`
	Message     string            `json:"message"`
	IsRead      bool              `json:"is_read"`
	OrderStatus model.OrderStatus `json:"order_status"`
	CreatedAt   time.Time         `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Unread        int                    `json:"unread"`
}

func ToNotificationResponse(n *model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		OrderID:     n.OrderID,
		Message:     n.Message,
		IsRead:      n.IsRead,
		OrderStatus: n.OrderStatus,
		CreatedAt:   n.CreatedAt,
	}
}

// --- Wishlist ---

type WishlistItemResponse struct {
	Product ProductResponse `json:"product"`
	AddedAt time.Time       `json:"added_at"`
}

// --- Dashboards ---

type SellerDashboardResponse struct {
	ProductsCount       int             `json:"products_count"`
	OrdersCount         int             `json:"orders_count"`
	PendingCount        int             `json:"pending_count"`
	CompletedCount      int             `json:"completed_count"`
	TotalSales          decimal.Decimal `json:"total_sales"`
	UnreadNotifications int             `json:"unread_notifications"`
}

type SellerProductCountResponse struct {
	SellerID     int64  `json:"seller_id"`
	Username     string `json:"username"`
	BusinessName string `json:"business_name"`
	ProductCount int    `json:"product_count"`
}

type AdminOverviewResponse struct {
	Clients  int                          `json:"clients"`
	Sellers  int                          `json:"sellers"`
	Feedback int                          `json:"feedback_count"`
	Products []SellerProductCountResponse `json:"products_per_seller"`
}
