package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/gin-gonic/gin"
)

func CreateItemCategory(c *gin.Context) {
	var input models.NewItemCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	category, err := models.CreateItemCategory(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func GetItemCategory(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	category, err := models.GetItemCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func GetItemCategories(c *gin.Context) {
	name := utils.NilIfEmpty(c.Query("name"))
	categories, err := models.GetItemCategories(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func UpdateItemCategory(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewItemCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	category, err := models.UpdateItemCategory(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func DeleteItemCategory(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	category, err := models.DeleteItemCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func ToggleActiveItemCategory(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req toggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	category, err := models.ToggleActiveItemCategory(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}
