package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadevx/backend/internal/settings"
)

func (h *Handler) GetDelivery(c *gin.Context) {
	d, err := h.s.GetDelivery(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDelivery(c *gin.Context) {
	var up settings.UpdateDelivery
	if err := h.bind(c, &up); err != nil {
		respondError(c, err)
		return
	}

	d, err := h.s.UpdateDelivery(c.Request.Context(), up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) DisableAdvancedDelivery(c *gin.Context) {
	d, err := h.s.DisableAdvancedDelivery(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) GetStore(c *gin.Context) {
	s, err := h.s.GetStore(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) UpdateStore(c *gin.Context) {
	var up settings.UpdateStore
	if err := h.bind(c, &up); err != nil {
		respondError(c, err)
		return
	}

	s, err := h.s.UpdateStore(c.Request.Context(), up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
