package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError surfaces any pipeline failure as a single 500 with its message.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
