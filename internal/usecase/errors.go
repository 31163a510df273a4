package usecase

import "errors"

// Every error returned by the asset operations wraps one of these, so callers
// branch with errors.Is. A failed output write wraps both ErrStorageIO and
// ErrEncode.
var (
	ErrInvalidSlug     = errors.New("invalid slug")
	ErrUnsupportedKind = errors.New("unsupported owner kind")
	ErrOwnerNotFound   = errors.New("owner not found")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrJobNotFound     = errors.New("job not found")
	ErrEncode          = errors.New("image could not be decoded or encoded")
	ErrStorageIO       = errors.New("storage i/o failure")
	ErrPersistence     = errors.New("persistence failure")
	ErrQueue           = errors.New("queue unavailable")
)
