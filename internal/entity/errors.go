package entity

import "errors"

var (
	// Submission errors
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrRateLimited         = errors.New("rate limited by remote service")
	ErrSubmission          = errors.New("submission failed")

	// Polling errors
	ErrGenerationRejected = errors.New("generation rejected")
	ErrTimeout            = errors.New("generation timed out")
	ErrDownload           = errors.New("result download failed")
	ErrPolling            = errors.New("status polling failed")

	// Processing errors
	ErrPostProcess = errors.New("post-processing failed")

	// Catalog errors
	ErrAssetNotFound     = errors.New("asset not found")
	ErrBatchNotFound     = errors.New("batch group not found")
	ErrStyleGuideMissing = errors.New("style guide not found")
)
