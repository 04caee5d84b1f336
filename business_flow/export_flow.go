package businessflow

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/repository"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/xuri/excelize/v2"
)

// ExportFlow renders a journal to a PDF and a spreadsheet summary. It never writes relational data.
type ExportFlow interface {
	ExportPDF(ctx context.Context, journalID uint) (*dto.ExportResponse, error)
	ExportDownloadURL(ctx context.Context, journalID uint) (*dto.ExportResponse, error)
	ExportSheet(ctx context.Context, journalID uint) (string, []byte, error)
}

// ExportFlowImpl implements the export business flow
type ExportFlowImpl struct {
	journalRepo  repository.JournalRepository
	photoRepo    repository.PhotoRepository
	metadataRepo repository.PhotoMetadataRepository
	blobs        services.BlobStore
	renderer     services.PDFRenderer
	exportCfg    config.ExportConfig
}

// NewExportFlow creates a new export flow instance
func NewExportFlow(
	journalRepo repository.JournalRepository,
	photoRepo repository.PhotoRepository,
	metadataRepo repository.PhotoMetadataRepository,
	blobs services.BlobStore,
	renderer services.PDFRenderer,
	exportCfg config.ExportConfig,
) ExportFlow {
	return &ExportFlowImpl{
		journalRepo:  journalRepo,
		photoRepo:    photoRepo,
		metadataRepo: metadataRepo,
		blobs:        blobs,
		renderer:     renderer,
		exportCfg:    exportCfg,
	}
}

// OrderForExport sorts photos by capture time. Photos without a timestamp go last;
// ties fall back to ingestion order.
func OrderForExport(photos []*models.Photo, metadata map[uint]*models.PhotoMetadata) []*models.Photo {
	capturedAt := func(p *models.Photo) *time.Time {
		if m, ok := metadata[p.ID]; ok && m != nil {
			return m.CapturedAt
		}
		return nil
	}

	ordered := slices.Clone(photos)
	slices.SortStableFunc(ordered, func(a, b *models.Photo) int {
		ta, tb := capturedAt(a), capturedAt(b)
		switch {
		case ta != nil && tb == nil:
			return -1
		case ta == nil && tb != nil:
			return 1
		case ta != nil && tb != nil && !ta.Equal(*tb):
			return ta.Compare(*tb)
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return ordered
}

// ExportPDF lays out every active photo with a stored image, one per page, stores the
// document and returns a signed download link
func (f *ExportFlowImpl) ExportPDF(ctx context.Context, journalID uint) (resp *dto.ExportResponse, err error) {
	defer func() { services.RecordStage(StageExport, err) }()

	if _, err := getJournal(ctx, f.journalRepo, journalID); err != nil {
		return nil, err
	}
	photos, err := getActivePhotos(ctx, f.photoRepo, journalID)
	if err != nil {
		return nil, err
	}

	live := make([]*models.Photo, 0, len(photos))
	for _, p := range photos {
		ok, err := f.blobs.Exists(ctx, p.BlobURI)
		if err != nil {
			return nil, upstreamError("BLOB_LOOKUP_FAILED", "Failed to check stored photo", err)
		}
		if ok {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return nil, NewBusinessError("NO_EXPORTABLE_PHOTOS", "No active photo has a stored image", ErrNoExportablePhotos)
	}

	metadata, err := f.metadataRepo.ByPhotoIDs(ctx, photoIDs(live))
	if err != nil {
		return nil, NewBusinessError("METADATA_LOOKUP_FAILED", "Failed to load photo metadata", err)
	}

	ordered := OrderForExport(live, metadata)
	pages := make([]services.ExportPage, 0, len(ordered))
	for _, p := range ordered {
		data, err := f.blobs.Get(ctx, p.BlobURI)
		if err != nil {
			return nil, upstreamError("BLOB_READ_FAILED", "Failed to read stored photo", err)
		}
		pages = append(pages, services.ExportPage{PhotoID: p.ID, Image: data, Text: p.ExportText()})
	}

	document, err := f.renderer.Render(pages)
	if err != nil {
		return nil, NewBusinessError("PDF_RENDER_FAILED", "Failed to render journal", err)
	}

	uri, err := f.blobs.Put(ctx, exportObjectName(journalID), document, "application/pdf")
	if err != nil {
		return nil, upstreamError("EXPORT_UPLOAD_FAILED", "Failed to store exported journal", err)
	}

	resp, err = f.sign(ctx, journalID, uri)
	if err != nil {
		return nil, err
	}
	resp.PageCount = len(pages)
	return resp, nil
}

// ExportDownloadURL signs a fresh link for the last stored export
func (f *ExportFlowImpl) ExportDownloadURL(ctx context.Context, journalID uint) (*dto.ExportResponse, error) {
	if _, err := getJournal(ctx, f.journalRepo, journalID); err != nil {
		return nil, err
	}

	uri := f.blobs.URI(exportObjectName(journalID))
	ok, err := f.blobs.Exists(ctx, uri)
	if err != nil {
		return nil, upstreamError("BLOB_LOOKUP_FAILED", "Failed to check exported journal", err)
	}
	if !ok {
		return nil, NewBusinessError("EXPORT_NOT_FOUND", "Journal has not been exported yet", ErrExportNotFound)
	}
	return f.sign(ctx, journalID, uri)
}

func (f *ExportFlowImpl) sign(ctx context.Context, journalID uint, uri string) (*dto.ExportResponse, error) {
	ttl := f.exportCfg.SignedURLTTL
	if ttl <= 0 {
		ttl = utils.ExportSignedURLTTL
	}
	expiresAt := utils.UTCNow().Add(ttl)
	url, err := f.blobs.SignedURL(ctx, uri, ttl)
	if err != nil {
		return nil, upstreamError("SIGNED_URL_FAILED", "Failed to sign export URL", err)
	}
	return &dto.ExportResponse{
		JournalID:   journalID,
		URI:         uri,
		DownloadURL: url,
		ExpiresAt:   utils.FormatISO8601(expiresAt),
	}, nil
}

// ExportSheet returns an XLSX summary of the active photos in export order
func (f *ExportFlowImpl) ExportSheet(ctx context.Context, journalID uint) (string, []byte, error) {
	if _, err := getJournal(ctx, f.journalRepo, journalID); err != nil {
		return "", nil, err
	}
	photos, err := getActivePhotos(ctx, f.photoRepo, journalID)
	if err != nil {
		return "", nil, err
	}
	metadata, err := f.metadataRepo.ByPhotoIDs(ctx, photoIDs(photos))
	if err != nil {
		return "", nil, NewBusinessError("METADATA_LOOKUP_FAILED", "Failed to load photo metadata", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := fmt.Sprintf("journal_%d", journalID)
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to create sheet", err)
	}

	header := []string{"order", "photo_id", "captured_at", "place_name", "latitude", "longitude", "importance", "caption", "final_text", "original_filename"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, p := range OrderForExport(photos, metadata) {
		var capturedAt, place, lat, lon string
		if m, ok := metadata[p.ID]; ok {
			capturedAt = utils.Deref(utils.FormatISO8601Ptr(m.CapturedAt))
			place = utils.Deref(m.PlaceName)
			if m.Latitude != nil {
				lat = strconv.FormatFloat(*m.Latitude, 'f', 6, 64)
			}
			if m.Longitude != nil {
				lon = strconv.FormatFloat(*m.Longitude, 'f', 6, 64)
			}
		}
		importance := ""
		if p.Importance != nil {
			importance = strconv.FormatFloat(*p.Importance, 'f', -1, 64)
		}
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatUint(uint64(p.ID), 10),
			capturedAt,
			place,
			lat,
			lon,
			importance,
			utils.Deref(p.Caption),
			p.ExportText(),
			p.OriginalFilename,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return fmt.Sprintf("journal_%d.xlsx", journalID), buf.Bytes(), nil
}

func exportObjectName(journalID uint) string {
	return fmt.Sprintf(utils.ExportObjectNameFormat, journalID)
}
