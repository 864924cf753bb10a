package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hadevx/backend/internal/catalog"
	"github.com/hadevx/backend/middleware"
)

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.p.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) LatestProducts(c *gin.Context) {
	n := 5
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	products, err := h.p.LatestProducts(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.p.GetProductByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) ProductsByCategory(c *gin.Context) {
	products, err := h.p.ProductsByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var np catalog.NewProduct
	if err := h.bind(c, &np); err != nil {
		respondError(c, err)
		return
	}

	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	product, err := h.p.InsertProduct(c.Request.Context(), np, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var up catalog.UpdateProduct
	if err := h.bind(c, &up); err != nil {
		respondError(c, err)
		return
	}

	product, err := h.p.UpdateProductInDB(c.Request.Context(), c.Param("id"), up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.p.DeleteProductFromDB(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
