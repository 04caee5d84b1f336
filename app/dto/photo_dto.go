package dto

// PhotoUpload is one file of a multipart upload, read by the handler
type PhotoUpload struct {
	Filename    string `json:"-"`
	ContentType string `json:"-"`
	Data        []byte `json:"-"`
}

// IngestPhotosRequest carries a batch of uploaded files into a journal
type IngestPhotosRequest struct {
	JournalID uint          `json:"-"`
	Files     []PhotoUpload `json:"-"`
}

// ListPhotosRequest represents the photo listing options of a journal
type ListPhotosRequest struct {
	JournalID       uint `json:"-"`
	IncludeInactive bool `json:"include_inactive" query:"include_inactive"`
	Signed          bool `json:"signed" query:"signed"`
}

// PhotoResponse represents a photo with its enrichment state
type PhotoResponse struct {
	ID               uint     `json:"id"`
	BlobURI          string   `json:"blob_uri"`
	ViewURL          string   `json:"view_url,omitempty"`
	OriginalFilename string   `json:"original_filename"`
	ContentType      string   `json:"content_type"`
	SizeBytes        int64    `json:"size_bytes"`
	Active           bool     `json:"active"`
	Importance       *float64 `json:"importance"`
	Caption          *string  `json:"caption"`
	Draft            *string  `json:"draft"`
	FinalText        *string  `json:"final_text"`
	CapturedAt       *string  `json:"captured_at"`
	PlaceName        *string  `json:"place_name"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	CreatedAt        string   `json:"created_at"`
}

// IngestPhotosResponse represents the photos created by an upload
type IngestPhotosResponse struct {
	JournalID uint            `json:"journal_id"`
	Photos    []PhotoResponse `json:"photos"`
}

// ListPhotosResponse represents the photos of a journal in ingestion order
type ListPhotosResponse struct {
	JournalID uint            `json:"journal_id"`
	Photos    []PhotoResponse `json:"photos"`
}

// RemovePhotoResponse reports what removing a photo changed
type RemovePhotoResponse struct {
	JournalID   uint `json:"journal_id"`
	PhotoID     uint `json:"photo_id"`
	Deactivated bool `json:"deactivated"`
	BlobDeleted bool `json:"blob_deleted"`
}

// SaveQuestionnaireRequest represents the answers for one photo
type SaveQuestionnaireRequest struct {
	How      string `json:"how" validate:"max=4000"`
	Emotions []int  `json:"emotions" validate:"max=8,dive,min=1,max=8"`
}

// QuestionnaireResponse represents the stored answers of one photo
type QuestionnaireResponse struct {
	PhotoID  uint          `json:"photo_id"`
	How      string        `json:"how"`
	Emotions []CategoryDTO `json:"emotions"`
}
