package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.authService.RegisterClient(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) RegisterSeller(c *gin.Context) {
	var req dto.RegisterSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.authService.RegisterSeller(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context)       { h.login(c, model.RoleClient) }
func (h *AuthHandler) SellerLogin(c *gin.Context) { h.login(c, model.RoleSeller) }
func (h *AuthHandler) AdminLogin(c *gin.Context)  { h.login(c, model.RoleSuperAdmin) }

func (h *AuthHandler) login(c *gin.Context, realm model.Role) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.authService.Login(c.Request.Context(), realm, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
