package utils

import "github.com/gin-gonic/gin"

// Success writes data as the 200 response body.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

// Fail writes a machine-readable error reason with the given status.
func Fail(c *gin.Context, status int, reason string) {
	c.JSON(status, gin.H{"error": reason})
}

// FailMsg writes an error reason plus a human-readable message.
func FailMsg(c *gin.Context, status int, reason, msg string) {
	c.JSON(status, gin.H{"error": reason, "message": msg})
}
