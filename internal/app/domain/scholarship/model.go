package scholarship

import "time"

// Category classifies a scholarship posting.
type Category string

const (
	CategoryUndergraduate Category = "Undergraduate"
	CategoryGraduate      Category = "Graduate"
	CategoryInternational Category = "International"
	CategoryMeritBased    Category = "Merit-based"
	CategoryNeedBased     Category = "Need-based"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryUndergraduate,
	CategoryGraduate,
	CategoryInternational,
	CategoryMeritBased,
	CategoryNeedBased,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Scholarship is one posting in the catalog. Identity is immutable once
// created; applications reference it by ID.
type Scholarship struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Provider          string    `json:"provider"`
	Amount            string    `json:"amount"`
	Deadline          string    `json:"deadline"`
	Category          Category  `json:"category"`
	Description       string    `json:"description"`
	AgeRange          string    `json:"age_range"`
	IncomeRange       string    `json:"income_range"`
	RequiredDocuments []string  `json:"required_documents"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
