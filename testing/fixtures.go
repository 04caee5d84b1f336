package testing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"time"

	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB    *TestDB
	Blobs services.BlobStore
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB, blobs services.BlobStore) *TestFixtures {
	return &TestFixtures{DB: db, Blobs: blobs}
}

// CreateTestJournal creates a journal, optionally with a style
func (tf *TestFixtures) CreateTestJournal(style *int) (*models.Journal, error) {
	journal := &models.Journal{StyleCategory: style}
	if err := tf.DB.DB.Create(journal).Error; err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}
	return journal, nil
}

// CreateTestPhotos stores n small JPEGs in the blob store and links them to the journal as active photos
func (tf *TestFixtures) CreateTestPhotos(journalID uint, n int) ([]*models.Photo, error) {
	photos := make([]*models.Photo, 0, n)
	for i := 0; i < n; i++ {
		data, err := TestJPEG(32, 24)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf(utils.PhotoObjectPrefixFormat, journalID) + uuid.NewString() + ".jpg"
		uri, err := tf.Blobs.Put(context.Background(), name, data, "image/jpeg")
		if err != nil {
			return nil, fmt.Errorf("failed to store photo: %w", err)
		}

		photo := &models.Photo{
			BlobURI:          uri,
			OriginalFilename: fmt.Sprintf("photo_%d.jpg", i+1),
			ContentType:      "image/jpeg",
			SizeBytes:        int64(len(data)),
		}
		if err := tf.DB.DB.Create(photo).Error; err != nil {
			return nil, fmt.Errorf("failed to create photo: %w", err)
		}
		link := &models.JournalPhoto{JournalID: journalID, PhotoID: photo.ID}
		if err := tf.DB.DB.Create(link).Error; err != nil {
			return nil, fmt.Errorf("failed to link photo: %w", err)
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

// SetTestCapturedAt stores a capture time for a photo
func (tf *TestFixtures) SetTestCapturedAt(photoID uint, capturedAt time.Time) error {
	metadata := &models.PhotoMetadata{PhotoID: photoID, CapturedAt: utils.ToPtr(capturedAt.UTC())}
	if err := tf.DB.DB.Create(metadata).Error; err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}
	return nil
}

// ReloadTestPhoto reads a photo back from the database
func (tf *TestFixtures) ReloadTestPhoto(photoID uint) (*models.Photo, error) {
	var photo models.Photo
	if err := tf.DB.DB.First(&photo, photoID).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// TestJPEG encodes a solid colour JPEG of the given size
func TestJPEG(width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
