package util

import "errors"

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidFileType   = errors.New("file type not allowed")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNoExtractableText = errors.New("no extractable text found")

	ErrUpstream       = errors.New("model call failed")
	ErrQuotaExhausted = errors.New("provider quota exhausted")
	ErrRateLimited    = errors.New("provider rate limited")
	ErrTransient      = errors.New("transient provider error")
	ErrPermanent      = errors.New("permanent provider error")
	ErrContextTooLong = errors.New("context too long")
)
