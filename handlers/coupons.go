package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadevx/backend/internal/coupons"
)

func (h *Handler) CreateCoupon(c *gin.Context) {
	var nc coupons.NewCoupon
	if err := h.bind(c, &nc); err != nil {
		respondError(c, err)
		return
	}

	coupon, err := h.cp.CreateCoupon(c.Request.Context(), nc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (h *Handler) ListCoupons(c *gin.Context) {
	list, err := h.cp.ListCoupons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetCoupon(c *gin.Context) {
	coupon, err := h.cp.GetCouponByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

func (h *Handler) UpdateCoupon(c *gin.Context) {
	var uc coupons.UpdateCoupon
	if err := h.bind(c, &uc); err != nil {
		respondError(c, err)
		return
	}

	coupon, err := h.cp.UpdateCoupon(c.Request.Context(), c.Param("id"), uc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

func (h *Handler) ToggleCoupon(c *gin.Context) {
	coupon, err := h.cp.ToggleCoupon(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

func (h *Handler) DeleteCoupon(c *gin.Context) {
	if err := h.cp.DeleteCoupon(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
}

// ValidateCoupon checks a code against the cart's categories without
// consuming a use.
func (h *Handler) ValidateCoupon(c *gin.Context) {
	var body struct {
		Code       string   `json:"code" validate:"required"`
		Categories []string `json:"categoryIds"`
	}
	if err := h.bind(c, &body); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.cp.Validate(c.Request.Context(), body.Code, body.Categories)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
