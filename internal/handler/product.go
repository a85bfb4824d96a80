package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/middleware"
	"github.com/flicky/go-marketplace/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
	cartService    *service.CartService
}

func NewProductHandler(productService *service.ProductService, cartService *service.CartService) *ProductHandler {
	return &ProductHandler{productService: productService, cartService: cartService}
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.productService.Browse(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProductResponse(product))
}

// Market is public; a signed-in client also gets how many units of this seller sit in their cart.
func (h *ProductHandler) Market(c *gin.Context) {
	sellerID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	seller, sections, err := h.productService.Market(ctx, sellerID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.MarketResponse{SellerID: seller.ID, SellerName: seller.DisplayName(), Sections: sections}
	if p := middleware.GetPrincipal(c); p.IsClient() {
		if n, err := h.cartService.Count(ctx, p, sellerID); err == nil {
			resp.CartQuantity = n
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) ListOwn(c *gin.Context) {
	products, err := h.productService.ListOwn(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": dto.ToProductResponses(products)})
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	product, err := h.productService.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToProductResponse(product))
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	product, err := h.productService.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProductResponse(product))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.SoftDelete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) Purge(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Purge(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
