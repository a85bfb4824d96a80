package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/middleware"
	"github.com/flicky/go-marketplace/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Overview(c *gin.Context) {
	o, err := h.adminService.Overview(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.AdminOverviewResponse{
		Clients:  o.Clients,
		Sellers:  o.Sellers,
		Feedback: o.Feedback,
		Products: make([]dto.SellerProductCountResponse, 0, len(o.ProductsPerSeller)),
	}
	for _, sc := range o.ProductsPerSeller {
		resp.Products = append(resp.Products, dto.SellerProductCountResponse{
			SellerID:     sc.SellerID,
			Username:     sc.Username,
			BusinessName: sc.BusinessName,
			ProductCount: sc.ProductCount,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) Transactions(c *gin.Context) {
	orders, err := h.adminService.Transactions(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderListResponse(orders))
}

// ExportTransactions builds the workbook in memory first so a failure can still answer with JSON.
func (h *AdminHandler) ExportTransactions(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.adminService.ExportTransactions(c.Request.Context(), middleware.GetPrincipal(c), &buf); err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
