package utils

import (
	"time"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Category code ranges
const (
	MinCategoryCode     = 1
	MaxPurposeCategory  = 4
	MaxAudienceCategory = 6
	MaxStyleCategory    = 3
	MaxEmotionCategory  = 8
)

// Pipeline constants
const (
	// ExportSignedURLTTL is how long a signed export download link stays valid
	ExportSignedURLTTL = time.Hour

	// ImageSignedURLTTL is the default lifetime of a signed image view link
	ImageSignedURLTTL = 5 * time.Minute

	// ExportPageWidthRatio bounds both the image width and the text line width on an export page
	ExportPageWidthRatio = 0.8

	// ExportObjectNameFormat is the blob name of a journal's exported PDF
	ExportObjectNameFormat = "exports/journal_%d.pdf"

	// PhotoObjectPrefixFormat is the blob name prefix for a journal's photos
	PhotoObjectPrefixFormat = "journals/%d/photos/"
)

// Request timeouts
const (
	DefaultRequestTimeout  = 30 * time.Second
	PipelineRequestTimeout = 3 * time.Minute
)
