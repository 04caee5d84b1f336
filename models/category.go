package models

// CategoryKind names one of the static lookup tables.
type CategoryKind string

const (
	CategoryPurpose  CategoryKind = "purpose"
	CategoryAudience CategoryKind = "audience"
	CategoryStyle    CategoryKind = "style"
	CategoryEmotion  CategoryKind = "emotion"
)

// String returns the string representation of the kind
func (k CategoryKind) String() string {
	return string(k)
}

// Valid checks if the kind is known
func (k CategoryKind) Valid() bool {
	switch k {
	case CategoryPurpose, CategoryAudience, CategoryStyle, CategoryEmotion:
		return true
	default:
		return false
	}
}

// TableName returns the lookup table backing the kind
func (k CategoryKind) TableName() string {
	return string(k) + "_categories"
}

type PurposeCategory struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Label string `gorm:"type:varchar(100);not null" json:"label"`
}

func (PurposeCategory) TableName() string { return CategoryPurpose.TableName() }

type AudienceCategory struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Label string `gorm:"type:varchar(100);not null" json:"label"`
}

func (AudienceCategory) TableName() string { return CategoryAudience.TableName() }

type StyleCategory struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Label string `gorm:"type:varchar(100);not null" json:"label"`
}

func (StyleCategory) TableName() string { return CategoryStyle.TableName() }

type EmotionCategory struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Label string `gorm:"type:varchar(100);not null" json:"label"`
}

func (EmotionCategory) TableName() string { return CategoryEmotion.TableName() }

// Category is a code/label pair read from any lookup table.
type Category struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// DefaultCategories is the reference data seeded at startup, indexed by code order.
var DefaultCategories = map[CategoryKind][]Category{
	CategoryPurpose: {
		{ID: 1, Label: "Rest and healing"},
		{ID: 2, Label: "Sightseeing and exploration"},
		{ID: 3, Label: "Food and local culture"},
		{ID: 4, Label: "Activities and adventure"},
	},
	CategoryAudience: {
		{ID: 1, Label: "Alone"},
		{ID: 2, Label: "With a partner"},
		{ID: 3, Label: "With family"},
		{ID: 4, Label: "With friends"},
		{ID: 5, Label: "With colleagues"},
		{ID: 6, Label: "With children"},
	},
	CategoryStyle: {
		{ID: 1, Label: "Casual diary"},
		{ID: 2, Label: "Emotional essay"},
		{ID: 3, Label: "Informative travel guide"},
	},
	CategoryEmotion: {
		{ID: 1, Label: "Joy"},
		{ID: 2, Label: "Excitement"},
		{ID: 3, Label: "Calm"},
		{ID: 4, Label: "Awe"},
		{ID: 5, Label: "Nostalgia"},
		{ID: 6, Label: "Gratitude"},
		{ID: 7, Label: "Loneliness"},
		{ID: 8, Label: "Tiredness"},
	},
}
