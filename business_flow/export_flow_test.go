package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestOrderForExport(t *testing.T) {
	base := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	photos := []*models.Photo{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}

	tests := []struct {
		name     string
		metadata map[uint]*models.PhotoMetadata
		want     []uint
	}{
		{
			name:     "no timestamps keeps ingestion order",
			metadata: map[uint]*models.PhotoMetadata{},
			want:     []uint{1, 2, 3, 4, 5},
		},
		{
			name: "timestamped photos first in time order",
			metadata: map[uint]*models.PhotoMetadata{
				2: {PhotoID: 2, CapturedAt: utils.ToPtr(base.Add(2 * time.Hour))},
				4: {PhotoID: 4, CapturedAt: utils.ToPtr(base)},
				5: {PhotoID: 5},
			},
			want: []uint{4, 2, 1, 3, 5},
		},
		{
			name: "equal timestamps fall back to id",
			metadata: map[uint]*models.PhotoMetadata{
				3: {PhotoID: 3, CapturedAt: utils.ToPtr(base)},
				1: {PhotoID: 1, CapturedAt: utils.ToPtr(base)},
			},
			want: []uint{1, 3, 2, 4, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ordered := OrderForExport(photos, tt.metadata)
			assert.Equal(t, tt.want, photoIDs(ordered))
		})
	}

	assert.Equal(t, []uint{1, 2, 3, 4, 5}, photoIDs(photos), "input must not be reordered")
}

func TestExportFlow_ExportPDF(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	journal, photos := env.journalWithPhotos(t, 3)

	require.NoError(t, env.fixtures.SetTestCapturedAt(photos[2].ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	_, err := env.drafts.GenerateDrafts(ctx, journal.ID)
	require.NoError(t, err)

	t.Run("download before export", func(t *testing.T) {
		_, err := env.export.ExportDownloadURL(ctx, journal.ID)
		assert.True(t, IsNotFound(err))
		assert.Equal(t, "EXPORT_NOT_FOUND", ErrorCode(err))
	})

	resp, err := env.export.ExportPDF(ctx, journal.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.PageCount)
	assert.Equal(t, env.blobs.URI(fmt.Sprintf(utils.ExportObjectNameFormat, journal.ID)), resp.URI)
	assert.NotEmpty(t, resp.DownloadURL)
	assert.NotEmpty(t, resp.ExpiresAt)

	document, err := env.blobs.Get(ctx, resp.URI)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(document, []byte("%PDF")))
	assert.Equal(t, "application/pdf", env.blobs.ContentType(resp.URI))

	t.Run("download after export", func(t *testing.T) {
		again, err := env.export.ExportDownloadURL(ctx, journal.ID)
		require.NoError(t, err)
		assert.Equal(t, resp.URI, again.URI)
	})

	t.Run("photos without blobs are skipped", func(t *testing.T) {
		_, err := env.blobs.Delete(ctx, photos[0].BlobURI)
		require.NoError(t, err)

		resp, err := env.export.ExportPDF(ctx, journal.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.PageCount)
	})
}

func TestExportFlow_NothingToExport(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	journal, photos := env.journalWithPhotos(t, 2)

	for _, p := range photos {
		_, err := env.blobs.Delete(ctx, p.BlobURI)
		require.NoError(t, err)
	}

	_, err := env.export.ExportPDF(ctx, journal.ID)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "NO_EXPORTABLE_PHOTOS", ErrorCode(err))

	empty, err := env.fixtures.CreateTestJournal(nil)
	require.NoError(t, err)
	_, err = env.export.ExportPDF(ctx, empty.ID)
	assert.True(t, IsNoActivePhotos(err))
}

func TestExportFlow_ExportSheet(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	journal, photos := env.journalWithPhotos(t, 2)
	require.NoError(t, env.fixtures.SetTestCapturedAt(photos[1].ID, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)))

	filename, data, err := env.export.ExportSheet(ctx, journal.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("journal_%d.xlsx", journal.ID), filename)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(fmt.Sprintf("journal_%d", journal.ID))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "photo_id", rows[0][1])
	assert.Equal(t, fmt.Sprint(photos[1].ID), rows[1][1], "timestamped photo comes first")
}
