package businessflow

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/repository"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Detected content types accepted for upload, mapped to the stored extension
var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PhotoFlow handles photo ingestion, listing and removal
type PhotoFlow interface {
	IngestPhotos(ctx context.Context, req *dto.IngestPhotosRequest) (*dto.IngestPhotosResponse, error)
	ListPhotos(ctx context.Context, req *dto.ListPhotosRequest) (*dto.ListPhotosResponse, error)
	RemovePhoto(ctx context.Context, journalID, photoID uint) (*dto.RemovePhotoResponse, error)
}

// PhotoFlowImpl implements the photo business flow
type PhotoFlowImpl struct {
	journalRepo  repository.JournalRepository
	photoRepo    repository.PhotoRepository
	metadataRepo repository.PhotoMetadataRepository
	blobs        services.BlobStore
	pipelineCfg  config.PipelineConfig
	storageCfg   config.StorageConfig
	db           *gorm.DB
	log          *logger.Logger
}

// NewPhotoFlow creates a new photo flow instance
func NewPhotoFlow(
	journalRepo repository.JournalRepository,
	photoRepo repository.PhotoRepository,
	metadataRepo repository.PhotoMetadataRepository,
	blobs services.BlobStore,
	pipelineCfg config.PipelineConfig,
	storageCfg config.StorageConfig,
	db *gorm.DB,
	log *logger.Logger,
) PhotoFlow {
	return &PhotoFlowImpl{
		journalRepo:  journalRepo,
		photoRepo:    photoRepo,
		metadataRepo: metadataRepo,
		blobs:        blobs,
		pipelineCfg:  pipelineCfg,
		storageCfg:   storageCfg,
		db:           db,
		log:          log,
	}
}

type preparedUpload struct {
	name        string
	filename    string
	contentType string
	data        []byte
}

// IngestPhotos uploads a batch of images and links them to the journal.
// Uploads run concurrently up to the configured bound; the relational writes commit as one unit.
func (f *PhotoFlowImpl) IngestPhotos(ctx context.Context, req *dto.IngestPhotosRequest) (resp *dto.IngestPhotosResponse, err error) {
	defer func() { services.RecordStage(StageIngestion, err) }()

	if req == nil || len(req.Files) == 0 {
		return nil, NewBusinessError("NO_FILES", "At least one photo is required", ErrInvalidPhotoUpload)
	}
	if len(req.Files) > f.pipelineCfg.MaxPhotosPerUpload {
		return nil, NewBusinessErrorf("TOO_MANY_FILES", "At most %d photos can be uploaded at once", ErrTooManyPhotosInRequest, f.pipelineCfg.MaxPhotosPerUpload)
	}

	uploads := make([]preparedUpload, 0, len(req.Files))
	prefix := fmt.Sprintf(utils.PhotoObjectPrefixFormat, req.JournalID)
	for _, file := range req.Files {
		prepared, err := f.preparePhoto(prefix, file)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, prepared)
	}

	if _, err := getJournal(ctx, f.journalRepo, req.JournalID); err != nil {
		return nil, err
	}

	uris, err := f.uploadAll(ctx, uploads)
	if err != nil {
		return nil, upstreamError("PHOTO_UPLOAD_FAILED", "Failed to store photos", err)
	}

	photos := make([]*models.Photo, 0, len(uploads))
	for i, u := range uploads {
		photos = append(photos, &models.Photo{
			BlobURI:          uris[i],
			OriginalFilename: u.filename,
			ContentType:      u.contentType,
			SizeBytes:        int64(len(u.data)),
		})
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.photoRepo.SaveBatch(txCtx, photos); err != nil {
			return err
		}
		return f.photoRepo.LinkToJournal(txCtx, req.JournalID, photoIDs(photos))
	})
	if err != nil {
		f.deleteBlobs(context.WithoutCancel(ctx), uris)
		return nil, NewBusinessError("PHOTO_INGESTION_FAILED", "Failed to save photos", classifyWriteError(err))
	}

	resp = &dto.IngestPhotosResponse{JournalID: req.JournalID, Photos: make([]dto.PhotoResponse, 0, len(photos))}
	for _, p := range photos {
		resp.Photos = append(resp.Photos, ToPhotoResponse(p, nil))
	}
	return resp, nil
}

func (f *PhotoFlowImpl) preparePhoto(prefix string, file dto.PhotoUpload) (preparedUpload, error) {
	size := int64(len(file.Data))
	if size == 0 {
		return preparedUpload{}, NewBusinessErrorf("EMPTY_FILE", "File %q is empty", ErrInvalidPhotoUpload, file.Filename)
	}
	if size > f.pipelineCfg.MaxPhotoSizeBytes {
		return preparedUpload{}, NewBusinessErrorf("FILE_TOO_LARGE", "File %q exceeds %d bytes", ErrInvalidPhotoUpload, file.Filename, f.pipelineCfg.MaxPhotoSizeBytes)
	}

	contentType := http.DetectContentType(file.Data)
	ext, ok := allowedPhotoTypes[contentType]
	if !ok {
		return preparedUpload{}, NewBusinessErrorf("INVALID_FILE_TYPE", "File %q is not a jpeg, png, gif or webp image", ErrInvalidPhotoUpload, file.Filename)
	}

	filename := filepath.Base(strings.TrimSpace(file.Filename))
	if filename == "." || filename == string(filepath.Separator) {
		filename = ""
	}
	return preparedUpload{
		name:        prefix + uuid.New().String() + ext,
		filename:    filename,
		contentType: contentType,
		data:        file.Data,
	}, nil
}

// uploadAll stores every upload and returns the URIs in input order.
// On failure the objects already written are removed.
func (f *PhotoFlowImpl) uploadAll(ctx context.Context, uploads []preparedUpload) ([]string, error) {
	uris := make([]string, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, f.storageCfg.UploadConcurrency))
	for i, u := range uploads {
		g.Go(func() error {
			uri, err := f.blobs.Put(gctx, u.name, u.data, u.contentType)
			if err != nil {
				return fmt.Errorf("upload %s: %w", u.filename, err)
			}
			uris[i] = uri
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		written := make([]string, 0, len(uris))
		for _, uri := range uris {
			if uri != "" {
				written = append(written, uri)
			}
		}
		f.deleteBlobs(context.WithoutCancel(ctx), written)
		return nil, err
	}
	return uris, nil
}

func (f *PhotoFlowImpl) deleteBlobs(ctx context.Context, uris []string) {
	for _, uri := range uris {
		if _, err := f.blobs.Delete(ctx, uri); err != nil {
			f.log.Warn("failed to clean up uploaded photo", "uri", uri, "error", err)
		}
	}
}

// ListPhotos returns the photos of a journal in ingestion order, with short-lived view URLs on request
func (f *PhotoFlowImpl) ListPhotos(ctx context.Context, req *dto.ListPhotosRequest) (*dto.ListPhotosResponse, error) {
	if _, err := getJournal(ctx, f.journalRepo, req.JournalID); err != nil {
		return nil, err
	}

	journalID := req.JournalID
	filter := models.PhotoFilter{JournalID: &journalID}
	if !req.IncludeInactive {
		filter.Active = utils.ToPtr(true)
	}
	photos, err := f.photoRepo.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("PHOTO_LOOKUP_FAILED", "Failed to list photos", err)
	}
	metadata, err := f.metadataRepo.ByPhotoIDs(ctx, photoIDs(photos))
	if err != nil {
		return nil, NewBusinessError("METADATA_LOOKUP_FAILED", "Failed to load photo metadata", err)
	}

	resp := &dto.ListPhotosResponse{JournalID: journalID, Photos: make([]dto.PhotoResponse, 0, len(photos))}
	for _, p := range photos {
		item := ToPhotoResponse(p, metadata[p.ID])
		if req.Signed {
			url, err := f.blobs.SignedURL(ctx, p.BlobURI, f.storageCfg.ImageURLTTL)
			if err != nil {
				return nil, upstreamError("SIGNED_URL_FAILED", "Failed to sign photo URL", err)
			}
			item.ViewURL = url
		}
		resp.Photos = append(resp.Photos, item)
	}
	return resp, nil
}

// RemovePhoto deactivates a photo and deletes its stored image. The deactivation stays
// committed when the blob delete fails.
func (f *PhotoFlowImpl) RemovePhoto(ctx context.Context, journalID, photoID uint) (*dto.RemovePhotoResponse, error) {
	photo, err := getPhotoInJournal(ctx, f.photoRepo, journalID, photoID)
	if err != nil {
		return nil, err
	}

	var affected int64
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		n, err := f.photoRepo.Deactivate(txCtx, []uint{photo.ID})
		affected = n
		return err
	})
	if err != nil {
		return nil, NewBusinessError("PHOTO_REMOVAL_FAILED", "Failed to deactivate photo", err)
	}

	deleted, err := f.blobs.Delete(ctx, photo.BlobURI)
	if err != nil {
		return nil, upstreamError("BLOB_DELETE_FAILED", "Photo was deactivated but its image could not be deleted", err)
	}

	return &dto.RemovePhotoResponse{
		JournalID:   journalID,
		PhotoID:     photo.ID,
		Deactivated: affected > 0,
		BlobDeleted: deleted,
	}, nil
}
