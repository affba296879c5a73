package handlers

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/importer"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/gin-gonic/gin"
)

func CreateConsumptionRecord(c *gin.Context) {
	var input models.NewConsumptionRecord
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	record, err := models.CreateConsumptionRecord(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func GetConsumptionRecords(c *gin.Context) {
	itemId, ok := pathId(c, "id")
	if !ok {
		return
	}

	var start, end *time.Time
	if v := c.Query("from"); v != "" {
		t, err := utils.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		start = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := utils.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		end = &t
	}

	records, err := models.GetConsumptionRecords(c.Request.Context(), itemId, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func UpdateConsumptionRecord(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewConsumptionRecord
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	record, err := models.UpdateConsumptionRecord(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func DeleteConsumptionRecord(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	record, err := models.DeleteConsumptionRecord(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ImportConsumption accepts a multipart upload ("file") with daily consumption
// rows and loads them through the Excel importer.
func ImportConsumption(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	summary, err := importer.ImportConsumptionFromXlsx(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
