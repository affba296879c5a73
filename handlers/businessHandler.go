package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateBusiness(c *gin.Context) {
	var input models.NewBusiness
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	business, err := models.CreateBusiness(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, business)
}

func GetBusiness(c *gin.Context) {
	businessId, ok := businessIdFromRequest(c)
	if !ok {
		return
	}
	business, err := models.GetBusinessById(c.Request.Context(), businessId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}
