package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/inventory_backend/analytics"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/models/reports"
	"github.com/gin-gonic/gin"
)

func queryInt(c *gin.Context, name string, defaultValue int) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return defaultValue, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

// RefreshItemProfile recomputes one item's statistical profile on demand.
func RefreshItemProfile(c *gin.Context) {
	itemId, ok := pathId(c, "id")
	if !ok {
		return
	}
	windowDays, ok := queryInt(c, "window_days", 0)
	if !ok {
		return
	}
	profile, err := analytics.RefreshProfile(c.Request.Context(), itemId, windowDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetAbnormalDays flags spike/drop days inside the item's lookback window.
func GetAbnormalDays(c *gin.Context) {
	itemId, ok := pathId(c, "id")
	if !ok {
		return
	}
	windowDays, ok := queryInt(c, "window_days", 0)
	if !ok {
		return
	}
	days, err := analytics.DetectAbnormalDays(c.Request.Context(), itemId, windowDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// RefreshCorrelation recomputes a single pair on demand.
func RefreshCorrelation(c *gin.Context) {
	itemA, ok := pathId(c, "id")
	if !ok {
		return
	}
	itemB, ok := pathId(c, "otherId")
	if !ok {
		return
	}
	windowDays, ok := queryInt(c, "window_days", 0)
	if !ok {
		return
	}
	corr, skip, err := analytics.RefreshCorrelation(c.Request.Context(), itemA, itemB, windowDays)
	if err != nil {
		respondError(c, err)
		return
	}
	if skip != analytics.SkipNone {
		c.JSON(http.StatusOK, gin.H{"skipped": skip})
		return
	}
	c.JSON(http.StatusOK, corr)
}

// GetItemCorrelations lists the stored active correlations touching the item.
func GetItemCorrelations(c *gin.Context) {
	itemId, ok := pathId(c, "id")
	if !ok {
		return
	}
	businessId, found := businessIdFromRequest(c)
	if !found {
		return
	}
	corrs, err := models.ListActiveCorrelations(c.Request.Context(), businessId, itemId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, corrs)
}

// GetRecommendations returns the top correlated counterparts for the item.
func GetRecommendations(c *gin.Context) {
	itemId, ok := pathId(c, "id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	recommendations, err := analytics.GetRecommendations(c.Request.Context(), itemId, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recommendations)
}

// RefreshAnalytics triggers a recompute pass (ALL, CATEGORY or STALE_ONLY).
func RefreshAnalytics(c *gin.Context) {
	var req analytics.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	summary, err := analytics.RefreshAll(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetProfileReport lists every active item with its current profile.
func GetProfileReport(c *gin.Context) {
	var categoryId *int
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		categoryId = &id
	}
	records, err := reports.GetConsumptionProfileReport(c.Request.Context(), categoryId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetCorrelationReport lists stored correlations above a minimum |coefficient|.
func GetCorrelationReport(c *gin.Context) {
	minCoefficient := 0.0
	if v := c.Query("min_coefficient"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_coefficient"})
			return
		}
		minCoefficient = f
	}
	records, err := reports.GetCorrelationReport(c.Request.Context(), minCoefficient)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ExportAnalytics streams the profile + correlation workbook.
func ExportAnalytics(c *gin.Context) {
	f, err := reports.ExportConsumptionAnalyticsXlsx(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=consumption_analytics.xlsx")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
