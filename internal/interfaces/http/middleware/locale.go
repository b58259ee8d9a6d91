package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/procurement/backoffice/internal/infrastructure/i18n"
	"github.com/procurement/backoffice/internal/infrastructure/logger"
)

// Locale context key and query parameter
const (
	GinLocaleKey     = "locale"
	LocaleQueryParam = "locale"
)

// Locale resolves the request locale: the ?locale= parameter first, then the
// token's locale claim, then Accept-Language. Unsupported values fall back to
// the table's default locale.
func Locale(table *i18n.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		var locale string
		switch {
		case c.Query(LocaleQueryParam) != "":
			locale = table.Match(c.Query(LocaleQueryParam))
		case GetJWTClaims(c) != nil && GetJWTClaims(c).Locale != "":
			locale = table.Match(GetJWTClaims(c).Locale)
		default:
			locale = table.Match(c.GetHeader("Accept-Language"))
		}

		c.Set(GinLocaleKey, locale)
		c.Header("Content-Language", locale)
		c.Request = c.Request.WithContext(logger.WithLocale(c.Request.Context(), locale))
		c.Next()
	}
}

// GetLocale returns the locale resolved by Locale, or "" when it did not run
func GetLocale(c *gin.Context) string {
	return c.GetString(GinLocaleKey)
}
