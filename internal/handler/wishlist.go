package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/middleware"
	"github.com/flicky/go-marketplace/internal/service"
)

type WishlistHandler struct {
	wishlistService *service.WishlistService
}

func NewWishlistHandler(wishlistService *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

func (h *WishlistHandler) List(c *gin.Context) {
	items, err := h.wishlistService.List(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.WishlistItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.WishlistItemResponse{
			Product: dto.ToProductResponse(&items[i].Product),
			AddedAt: items[i].AddedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

func (h *WishlistHandler) Add(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	created, err := h.wishlistService.Add(c.Request.Context(), middleware.GetPrincipal(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "already in wishlist"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "added to wishlist"})
}

func (h *WishlistHandler) Remove(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	if err := h.wishlistService.Remove(c.Request.Context(), middleware.GetPrincipal(c), productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
