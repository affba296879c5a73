package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/gin-gonic/gin"
)

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func CreateItem(c *gin.Context) {
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	item, err := models.CreateItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func GetItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	item, err := models.GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func GetItems(c *gin.Context) {
	name := utils.NilIfEmpty(c.Query("name"))
	var categoryId *int
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		categoryId = &id
	}
	items, err := models.GetItems(c.Request.Context(), name, categoryId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func UpdateItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	item, err := models.UpdateItem(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func DeleteItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	item, err := models.DeleteItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type toggleActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func ToggleActiveItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req toggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	item, err := models.ToggleActiveItem(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
