package businessflow

import (
	"context"
	"errors"

	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/utils"
)

// MetadataResult is the enrichment outcome of one photo. When Err is set the
// metadata carries only nulls and the failure was not fatal to the batch.
type MetadataResult struct {
	PhotoID  uint
	Metadata models.PhotoMetadata
	Err      error
}

// Degraded reports whether extraction failed for this photo
func (r MetadataResult) Degraded() bool {
	return r.Err != nil
}

// MetadataBatch collects the per-photo results of one enrichment run
type MetadataBatch []MetadataResult

// Degraded counts photos whose extraction failed
func (b MetadataBatch) Degraded() int {
	n := 0
	for _, r := range b {
		if r.Degraded() {
			n++
		}
	}
	return n
}

// metadataEnricher reads EXIF from stored images and resolves coordinates to places
type metadataEnricher struct {
	blobs     services.BlobStore
	extractor services.MetadataExtractor
	geocoder  services.Geocoder
}

// enrich never fails; each photo gets a result.
func (e *metadataEnricher) enrich(ctx context.Context, photos []*models.Photo) MetadataBatch {
	batch := make(MetadataBatch, 0, len(photos))
	for _, p := range photos {
		batch = append(batch, e.enrichOne(ctx, p))
	}
	return batch
}

func (e *metadataEnricher) enrichOne(ctx context.Context, photo *models.Photo) MetadataResult {
	result := MetadataResult{
		PhotoID:  photo.ID,
		Metadata: models.PhotoMetadata{PhotoID: photo.ID},
	}

	data, err := e.blobs.Get(ctx, photo.BlobURI)
	if err != nil {
		result.Err = err
		return result
	}

	meta, err := e.extractor.Extract(data)
	if err != nil {
		if errors.Is(err, services.ErrNoEXIF) {
			return result
		}
		result.Err = err
		return result
	}

	result.Metadata.CapturedAt = meta.CapturedAt
	if meta.HasLocation() {
		result.Metadata.Latitude = meta.Latitude
		result.Metadata.Longitude = meta.Longitude
		if place := e.geocoder.Reverse(ctx, *meta.Latitude, *meta.Longitude); place != services.NoAddress {
			result.Metadata.PlaceName = utils.NonEmptyPtr(place)
		}
	}
	return result
}
