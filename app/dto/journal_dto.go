package dto

// CategoryDTO is one code/label pair of a lookup table
type CategoryDTO struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// CategoriesResponse lists every lookup table
type CategoriesResponse struct {
	Purposes  []CategoryDTO `json:"purposes"`
	Audiences []CategoryDTO `json:"audiences"`
	Styles    []CategoryDTO `json:"styles"`
	Emotions  []CategoryDTO `json:"emotions"`
}

// CreateJournalRequest represents the request to start a new journal
type CreateJournalRequest struct {
	StyleCategory *int `json:"style_category,omitempty" validate:"omitempty,min=1,max=3"`
}

// UpdateJournalRequest changes the writing style of a journal
type UpdateJournalRequest struct {
	StyleCategory int `json:"style_category" validate:"required,min=1,max=3"`
}

// ListJournalsRequest represents paging over journals, newest first
type ListJournalsRequest struct {
	Limit  int `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `json:"offset" query:"offset" validate:"omitempty,min=0"`
}

// CaptureIntentRequest replaces who travelled and why
type CaptureIntentRequest struct {
	Audiences []int `json:"audiences" validate:"required,min=1,max=6,dive,min=1,max=6"`
	Purposes  []int `json:"purposes" validate:"required,min=1,max=4,dive,min=1,max=4"`
}

// JournalResponse represents a journal with its selections and photo counts
type JournalResponse struct {
	ID               uint          `json:"id"`
	StyleCategory    *int          `json:"style_category"`
	Style            *string       `json:"style"`
	Purposes         []CategoryDTO `json:"purposes"`
	Audiences        []CategoryDTO `json:"audiences"`
	PhotoCount       int64         `json:"photo_count"`
	ActivePhotoCount int64         `json:"active_photo_count"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
}

// ListJournalsResponse represents one page of journals
type ListJournalsResponse struct {
	Journals []JournalResponse `json:"journals"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// CaptureIntentResponse echoes the stored selections with labels
type CaptureIntentResponse struct {
	JournalID uint          `json:"journal_id"`
	Audiences []CategoryDTO `json:"audiences"`
	Purposes  []CategoryDTO `json:"purposes"`
}
