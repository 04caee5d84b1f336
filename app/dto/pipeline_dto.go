package dto

// PrimarySelectionRequest asks to keep the Count most important photos
type PrimarySelectionRequest struct {
	Count int `json:"count" validate:"required,min=1"`
}

// RankedPhoto is one photo and the score it was ranked by
type RankedPhoto struct {
	PhotoID    uint    `json:"photo_id"`
	Importance float64 `json:"importance"`
}

// PrimarySelectionResponse represents the outcome of ranking
type PrimarySelectionResponse struct {
	JournalID      uint          `json:"journal_id"`
	Requested      int           `json:"requested"`
	Kept           []RankedPhoto `json:"kept"`
	DeactivatedIDs []uint        `json:"deactivated_ids"`
}

// DeactivatePhotosRequest lists photos to drop from the journal
type DeactivatePhotosRequest struct {
	PhotoIDs []uint `json:"photo_ids" validate:"required,min=1,dive,min=1"`
}

// DeactivatePhotosResponse reports the matched photos. Deactivated counts rows that were still active.
type DeactivatePhotosResponse struct {
	JournalID   uint   `json:"journal_id"`
	MatchedIDs  []uint `json:"matched_ids"`
	Deactivated int64  `json:"deactivated"`
}

// SecondarySelectionRequest optionally drops photos before enrichment
type SecondarySelectionRequest struct {
	PhotoIDs []uint `json:"photo_ids" validate:"omitempty,dive,min=1"`
}

// EnrichedPhoto represents the metadata and caption written for one photo
type EnrichedPhoto struct {
	PhotoID       uint     `json:"photo_id"`
	CapturedAt    *string  `json:"captured_at"`
	PlaceName     *string  `json:"place_name"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Caption       *string  `json:"caption"`
	MetadataError string   `json:"metadata_error,omitempty"`
}

// EnrichPhotosResponse represents one enrichment run
type EnrichPhotosResponse struct {
	JournalID uint            `json:"journal_id"`
	Photos    []EnrichedPhoto `json:"photos"`
	Captioned int             `json:"captioned"`
	Degraded  int             `json:"degraded"`
}

// SecondarySelectionResponse reports both steps. Deactivation stays committed when enrichment fails.
type SecondarySelectionResponse struct {
	JournalID             uint                      `json:"journal_id"`
	Deactivation          *DeactivatePhotosResponse `json:"deactivation,omitempty"`
	DeactivationCommitted bool                      `json:"deactivation_committed"`
	Enrichment            *EnrichPhotosResponse     `json:"enrichment,omitempty"`
}

// PhotoDraft is the text generated for one photo
type PhotoDraft struct {
	PhotoID   uint   `json:"photo_id"`
	Draft     string `json:"draft"`
	FinalText string `json:"final_text"`
}

// GenerateDraftsResponse represents one drafting run
type GenerateDraftsResponse struct {
	JournalID uint         `json:"journal_id"`
	Drafts    []PhotoDraft `json:"drafts"`
	Missing   []uint       `json:"missing"`
}

// CorrectFinalTextRequest overwrites the finalized text of a photo
type CorrectFinalTextRequest struct {
	Text string `json:"text" validate:"max=10000"`
}

// FinalTextResponse represents the finalized text of a photo
type FinalTextResponse struct {
	PhotoID   uint   `json:"photo_id"`
	FinalText string `json:"final_text"`
}

// ExportResponse represents a stored PDF export and its download link
type ExportResponse struct {
	JournalID   uint   `json:"journal_id"`
	URI         string `json:"uri"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
	PageCount   int    `json:"page_count,omitempty"`
}
