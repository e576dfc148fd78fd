package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"

	"github.com/gin-gonic/gin"

	"frontdesk-platform/pkg/logger"
)

const signatureHeader = "X-Twilio-Signature"

// ValidSignature checks a Twilio webhook signature: HMAC-SHA1 over the full
// request URL followed by the POST parameters sorted by key, base64-encoded.
// Ref: https://www.twilio.com/docs/usage/security#validating-requests
func ValidSignature(authToken, fullURL string, form url.Values, signature string) bool {
	if authToken == "" || signature == "" {
		return false
	}

	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(fullURL))
	for _, k := range keys {
		mac.Write([]byte(k))
		// Twilio signs a single value per parameter.
		mac.Write([]byte(form.Get(k)))
	}
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// RequireSignature is Gin middleware that rejects webhook requests whose
// X-Twilio-Signature does not verify. publicBaseURL is the externally visible
// scheme+host Twilio signed against (the service usually sits behind a proxy,
// so the request's own Host header cannot be trusted).
//
// An empty authToken disables verification; config.Validate rejects that
// outside local development.
func RequireSignature(authToken, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authToken == "" {
			c.Next()
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}

		fullURL := publicBaseURL + c.Request.URL.RequestURI()
		sig := c.GetHeader(signatureHeader)
		if !ValidSignature(authToken, fullURL, c.Request.PostForm, sig) {
			logger.FromGin(c).Warn("twilio signature verification failed",
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}
