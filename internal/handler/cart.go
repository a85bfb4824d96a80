package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/middleware"
	"github.com/flicky/go-marketplace/internal/service"
)

type CartHandler struct {
	cartService     *service.CartService
	checkoutService *service.CheckoutService
}

func NewCartHandler(cartService *service.CartService, checkoutService *service.CheckoutService) *CartHandler {
	return &CartHandler{cartService: cartService, checkoutService: checkoutService}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.cartService.View(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCartResponse(view))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	view, err := h.cartService.AddItem(c.Request.Context(), middleware.GetPrincipal(c), req.SellerID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCartResponse(view))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	view, err := h.cartService.RemoveItem(c.Request.Context(), middleware.GetPrincipal(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCartResponse(view))
}

func (h *CartHandler) Checkout(c *gin.Context) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.checkoutService.Checkout(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}
