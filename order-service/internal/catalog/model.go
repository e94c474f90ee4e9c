package catalog

import "github.com/shopspring/decimal"

// Translations maps a language code (uz, ru, en) to localized text.
type Translations map[string]string

// Get returns the text for lang, falling back to fallback when missing.
func (t Translations) Get(lang, fallback string) string {
	if v := t[lang]; v != "" {
		return v
	}
	return fallback
}

// NewTranslations builds Translations from nullable per-language columns.
func NewTranslations(uz, ru, en *string) Translations {
	t := make(Translations, 3)
	for lang, v := range map[string]*string{"uz": uz, "ru": ru, "en": en} {
		if v != nil && *v != "" {
			t[lang] = *v
		}
	}
	return t
}

type Product struct {
	ID       int64
	Title    string
	Titles   Translations
	Price    decimal.Decimal
	IsActive bool
}

type ColorVariant struct {
	ID         int64
	ProductID  int64
	ColorName  *string
	ColorNames Translations
	Price      decimal.Decimal
}

type FeatureVariant struct {
	ID        int64
	ProductID int64
	TypeID    int64
	TypeName  string
	TypeNames Translations
	Value     string
	Price     decimal.Decimal
}

// ProductSummary is the presentation view of a product: title and image paths.
type ProductSummary struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Titles Translations `json:"titles,omitempty"`
	Images []string     `json:"images"`
}
