package contracts

import "errors"

// Pipeline error taxonomy
// ⭐ SSOT: 파이프라인 에러 분류는 여기서만 정의
var (
	// ErrFetchFailure is returned by upstream clients after their own retries.
	// The resolver treats it the same as an empty payload.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrNoTradingDayFound means the lookback window was exhausted. Fatal to the run.
	ErrNoTradingDayFound = errors.New("no trading day found")

	// ErrMalformedRow marks a tick row that does not match the feed's field list.
	// The row is dropped, never the run.
	ErrMalformedRow = errors.New("malformed tick row")

	// ErrMissingReference means a reference file is absent.
	// The stage that needs it is skipped for every symbol.
	ErrMissingReference = errors.New("missing reference data")

	// ErrEmptyUniverse means no symbol survived identity filtering. Fatal to the run.
	ErrEmptyUniverse = errors.New("no symbols survived identity filtering")

	// ErrRunInProgress is returned when a run is requested while another is active
	ErrRunInProgress = errors.New("pipeline run already in progress")
)
