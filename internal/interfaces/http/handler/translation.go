package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/procurement/backoffice/internal/infrastructure/i18n"
)

// TranslationHandler exposes the panel's localization table
type TranslationHandler struct {
	BaseHandler
	table *i18n.Table
}

// NewTranslationHandler creates a new TranslationHandler
func NewTranslationHandler(table *i18n.Table) *TranslationHandler {
	return &TranslationHandler{table: table}
}

// TranslationResponse is one translated key
// @name HandlerTranslationResponse
type TranslationResponse struct {
	Locale string `json:"locale" example:"ar"`
	Key    string `json:"key" example:"actions.delete.label"`
	Value  string `json:"value" example:"حذف"`
	Found  bool   `json:"found" example:"true"`
}

// CatalogResponse is every key of the default locale translated into one locale
// @name HandlerCatalogResponse
type CatalogResponse struct {
	Locale   string            `json:"locale" example:"ar"`
	Supports []string          `json:"supported_locales"`
	Entries  map[string]string `json:"entries"`
}

// Translate godoc
// @ID           getPanelTranslation
// @Summary      Translate panel strings
// @Description  With ?key= returns one translation, otherwise the full catalog. Missing entries fall back to the base language, then the default locale, then the key itself.
// @Tags         panel
// @Produce      json
// @Param        locale path  string true  "Locale" example(ar)
// @Param        key    query string false "Dotted key path" example(actions.delete.label)
// @Success      200 {object} APIResponse[TranslationResponse]
// @Success      200 {object} APIResponse[CatalogResponse] "Without key"
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/translations/{locale} [get]
func (h *TranslationHandler) Translate(c *gin.Context) {
	locale := c.Param("locale")

	if key := c.Query("key"); key != "" {
		value, found := h.table.Resolve(locale, key)
		if !found {
			value = key
		}
		h.Success(c, TranslationResponse{Locale: locale, Key: key, Value: value, Found: found})
		return
	}

	keys := h.table.Keys(h.table.DefaultLocale())
	entries := make(map[string]string, len(keys))
	for _, key := range keys {
		entries[key] = h.table.Translate(locale, key)
	}
	h.Success(c, CatalogResponse{Locale: locale, Supports: h.table.Locales(), Entries: entries})
}
