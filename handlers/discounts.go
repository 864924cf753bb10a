package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type discountBody struct {
	DiscountBy float64  `json:"discountBy" validate:"required,gt=0,lte=1"`
	Categories []string `json:"category" validate:"required,min=1"`
}

func (h *Handler) CreateDiscount(c *gin.Context) {
	var body discountBody
	if err := h.bind(c, &body); err != nil {
		respondError(c, err)
		return
	}

	discount, err := h.p.CreateDiscount(c.Request.Context(), body.DiscountBy, body.Categories)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, discount)
}

func (h *Handler) ListDiscounts(c *gin.Context) {
	list, err := h.p.ListDiscounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) UpdateDiscount(c *gin.Context) {
	var body struct {
		DiscountBy *float64 `json:"discountBy" validate:"omitempty,gt=0,lte=1"`
		Categories []string `json:"category"`
	}
	if err := h.bind(c, &body); err != nil {
		respondError(c, err)
		return
	}

	discount, err := h.p.UpdateDiscount(c.Request.Context(), c.Param("id"), body.DiscountBy, body.Categories)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, discount)
}

func (h *Handler) DeleteDiscount(c *gin.Context) {
	if err := h.p.DeleteDiscount(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Discount deleted"})
}
