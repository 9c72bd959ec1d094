package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireOperatorKey middleware для операторских эндпоинтов (модерация,
// ручной запуск планировщика). Ключи сверяются в constant time.
func RequireOperatorKey(validKeys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")

		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_api_key",
				"message": "Operator API key required in X-API-Key header",
			})
			c.Abort()
			return
		}

		valid := false
		var keyName string
		for validKey, name := range validKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
				valid = true
				keyName = name
				break
			}
		}

		if !valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_api_key",
				"message": "Invalid operator API key",
			})
			c.Abort()
			return
		}

		// Имя ключа пригодится в логах модерации
		c.Set("operator_name", keyName)

		c.Next()
	}
}
