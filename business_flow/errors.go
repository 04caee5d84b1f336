// Package businessflow contains the journal pipeline stages and the use cases around them
package businessflow

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Business flow error constants
var (
	// Not found
	ErrJournalNotFound    = errors.New("journal not found")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrNoActivePhotos     = errors.New("journal has no active photos")
	ErrNoMatchingPhotos   = errors.New("none of the given photos belong to the journal")
	ErrNoExportablePhotos = errors.New("no active photo has a stored image")
	ErrExportNotFound     = errors.New("journal has not been exported yet")

	// Validation
	ErrInvalidRequest         = errors.New("invalid request")
	ErrInvalidCategory        = errors.New("invalid category code")
	ErrInvalidSelectionCount  = errors.New("selection count must be at least 1")
	ErrInvalidPhotoUpload     = errors.New("invalid photo upload")
	ErrInvalidPagination      = errors.New("limit must be between 1 and 100 and offset must not be negative")
	ErrEmptyPhotoIDs          = errors.New("at least one photo id is required")
	ErrQuestionnaireTooLong   = errors.New("questionnaire answer is too long")
	ErrTooManyPhotosInRequest = errors.New("too many photos in one upload")

	// Write conflicts
	ErrConstraintViolation = errors.New("constraint violation")

	// Collaborators
	ErrUpstreamFailure = errors.New("upstream service failure")
)

var notFoundErrors = []error{
	ErrJournalNotFound,
	ErrPhotoNotFound,
	ErrNoActivePhotos,
	ErrNoMatchingPhotos,
	ErrNoExportablePhotos,
	ErrExportNotFound,
}

var validationErrors = []error{
	ErrInvalidRequest,
	ErrInvalidCategory,
	ErrInvalidSelectionCount,
	ErrInvalidPhotoUpload,
	ErrInvalidPagination,
	ErrEmptyPhotoIDs,
	ErrQuestionnaireTooLong,
	ErrTooManyPhotosInRequest,
}

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// ErrorCode returns the code of the outermost BusinessError, empty when there is none.
func ErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return isAny(err, notFoundErrors)
}

func IsValidation(err error) bool {
	return isAny(err, validationErrors)
}

func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}

func IsUpstreamFailure(err error) bool {
	return errors.Is(err, ErrUpstreamFailure)
}

func IsJournalNotFound(err error) bool {
	return errors.Is(err, ErrJournalNotFound)
}

func IsNoActivePhotos(err error) bool {
	return errors.Is(err, ErrNoActivePhotos)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// classifyWriteError turns referential integrity failures into constraint violations.
// Anything else is returned unchanged.
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	return err
}

// upstreamError marks a collaborator failure.
func upstreamError(code, message string, err error) error {
	return NewBusinessError(code, message, fmt.Errorf("%w: %w", ErrUpstreamFailure, err))
}
