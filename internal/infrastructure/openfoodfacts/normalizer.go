package openfoodfacts

import (
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"github.com/pantrypal/backend/internal/domain"
)

// Normalize maps a raw provider record onto the canonical product model.
// Every field access is optional-safe: the provider schema is community
// data and cannot be trusted to carry anything. Pure and deterministic.
func Normalize(barcode string, raw *rawProduct) *domain.Product {
	if raw == nil {
		return domain.FallbackProduct(barcode, domain.OutcomeNotFound)
	}

	name := strings.TrimSpace(raw.ProductName)
	if name == "" {
		name = domain.UnknownProductName
	}

	return &domain.Product{
		Barcode:   barcode,
		Name:      name,
		Brand:     firstBrand(raw.Brands),
		ImageURL:  strings.TrimSpace(raw.ImageURL),
		Category:  InferCategory(raw.Categories),
		Nutrition: extractNutrition(raw),
		Outcome:   domain.OutcomeFound,
	}
}

// firstBrand takes the first entry of the provider's comma-joined brand list.
func firstBrand(brands string) string {
	brand, _, _ := strings.Cut(brands, ",")
	return strings.TrimSpace(brand)
}

// nutrimentKeys maps provider per-100g keys to canonical nutrition fields.
var nutrimentKeys = []struct {
	key    string
	assign func(*domain.Nutrition, *float64)
}{
	{"energy-kcal_100g", func(n *domain.Nutrition, v *float64) { n.Calories = v }},
	{"fat_100g", func(n *domain.Nutrition, v *float64) { n.Fat = v }},
	{"carbohydrates_100g", func(n *domain.Nutrition, v *float64) { n.Carbs = v }},
	{"proteins_100g", func(n *domain.Nutrition, v *float64) { n.Protein = v }},
	{"fiber_100g", func(n *domain.Nutrition, v *float64) { n.Fiber = v }},
	{"sugars_100g", func(n *domain.Nutrition, v *float64) { n.Sugar = v }},
	{"sodium_100g", func(n *domain.Nutrition, v *float64) { n.Sodium = v }},
}

// extractNutrition builds the optional nutrition block. Contributors upload
// nutriment values as numbers or quoted strings interchangeably, so the
// block is read with gjson rather than a rigid struct. Missing fields stay
// nil; a zero in the data is a real zero, absence is absence.
func extractNutrition(raw *rawProduct) *domain.Nutrition {
	n := &domain.Nutrition{
		Ingredients: strings.TrimSpace(raw.IngredientsText),
		Allergens:   NormalizeAllergenTags(raw.AllergensTags),
	}

	hasData := n.Ingredients != "" || len(n.Allergens) > 0
	if len(raw.Nutriments) > 0 {
		for _, nk := range nutrimentKeys {
			res := gjson.GetBytes(raw.Nutriments, nk.key)
			if !res.Exists() {
				continue
			}
			if res.Type == gjson.String && strings.TrimSpace(res.String()) == "" {
				continue
			}
			v := res.Float()
			nk.assign(n, &v)
			hasData = true
		}
	}

	if !hasData {
		return nil
	}
	return n
}

// NormalizeAllergenTags turns raw machine tags like "en:whole-milk" into
// human-readable entries ("Whole Milk"), deduplicated preserving first-seen
// order.
func NormalizeAllergenTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		name := deslugTag(tag)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// deslugTag drops the locale namespace, de-hyphenates, and title-cases.
func deslugTag(tag string) string {
	if i := strings.LastIndex(tag, ":"); i >= 0 {
		tag = tag[i+1:]
	}
	words := strings.FieldsFunc(tag, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// categoryBuckets are scanned in order against the provider's free-text
// category string; the first matching bucket wins. Dairy is checked before
// produce, so a product tagged with both classifies as dairy.
var categoryBuckets = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryDairy, []string{"dairy", "milk", "cheese", "yogurt", "butter", "cream"}},
	{domain.CategoryProduce, []string{"fruit", "vegetable", "produce", "salad", "legume"}},
	{domain.CategoryMeat, []string{"meat", "poultry", "chicken", "beef", "pork", "fish", "seafood"}},
	{domain.CategoryBakery, []string{"bread", "bakery", "baked", "pastr", "biscuit"}},
	{domain.CategoryFrozen, []string{"frozen", "ice cream"}},
	{domain.CategorySpice, []string{"spice", "seasoning", "herb", "condiment"}},
}

// InferCategory maps the provider's free-text category string to a pantry
// category. Used only when the caller has no better signal; unmatched text
// maps to Other.
func InferCategory(text string) domain.Category {
	lowered := strings.ToLower(text)
	if lowered == "" {
		return domain.CategoryOther
	}
	for _, bucket := range categoryBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lowered, kw) {
				return bucket.category
			}
		}
	}
	return domain.CategoryOther
}
