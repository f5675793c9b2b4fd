package delivery

import (
	"log"
	"net/http"

	"firebase.google.com/go/v4/appcheck"
	"github.com/gin-gonic/gin"
)

// AppCheckHeader carries the Firebase App Check token
const AppCheckHeader = "X-Firebase-AppCheck"

// TokenVerifier verifies App Check tokens. *appcheck.Client satisfies it.
type TokenVerifier interface {
	VerifyToken(token string) (*appcheck.DecodedAppCheckToken, error)
}

// AppCheckMiddleware rejects requests without a valid App Check token and
// stores the calling app id under "appID"
func AppCheckMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AppCheckHeader)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "app check token required"})
			c.Abort()
			return
		}

		decoded, err := verifier.VerifyToken(token)
		if err != nil {
			log.Printf("[AppCheck] Rejected token: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid app check token"})
			c.Abort()
			return
		}

		c.Set("appID", decoded.AppID)
		c.Next()
	}
}
