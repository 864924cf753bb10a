package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadevx/backend/internal/catalog"
)

func (h *Handler) CreateCategory(c *gin.Context) {
	var nc catalog.NewCategory
	if err := h.bind(c, &nc); err != nil {
		respondError(c, err)
		return
	}

	category, err := h.p.CreateCategory(c.Request.Context(), nc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.p.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// DeleteCategory removes a category by name taken from the body.
func (h *Handler) DeleteCategory(c *gin.Context) {
	var body struct {
		Name string `json:"name" validate:"required"`
	}
	if err := h.bind(c, &body); err != nil {
		respondError(c, err)
		return
	}

	category, err := h.p.DeleteCategory(c.Request.Context(), body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}
