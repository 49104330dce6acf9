package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnsupportedMove  = errors.New("storage does not support moving entries")
	ErrImportFormat     = errors.New("unrecognized import format")
)
