package handlers

import (
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BusinessMiddleware reads the tenant from the X-Business-Id header and puts
// it in the request context, where every model function expects it.
func BusinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId := c.GetHeader("X-Business-Id")
		if businessId == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Business-Id header is required"})
			return
		}
		c.Request = c.Request.WithContext(utils.SetBusinessIdInContext(c.Request.Context(), businessId))
		c.Next()
	}
}

func businessIdFromRequest(c *gin.Context) (string, bool) {
	businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
	if !ok || businessId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business id is required"})
		return "", false
	}
	return businessId, true
}

// respondError maps model-layer errors to HTTP statuses. Unknown resource ids
// are the only hard 404; everything else surfaces as a 400 with the message.
func respondError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
