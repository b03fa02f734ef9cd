package models

import "errors"

// Failure taxonomy for the oracle engine. Callers match with errors.Is;
// wrapping sites add ticker/currency context with fmt.Errorf and %w.
var (
	// ErrUnsupportedAsset means the ticker is not present in the symbol registry.
	ErrUnsupportedAsset = errors.New("unsupported asset")

	// ErrOracleUnavailable means the oracle produced no usable response at all
	// (every responder failed, or the source reported no data).
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrMalformedResponse means a response was present but its numeric fields
	// could not be parsed or were out of range.
	ErrMalformedResponse = errors.New("malformed oracle response")

	// ErrConsensusRejected means responders answered but no value reached the
	// required agreement quorum.
	ErrConsensusRejected = errors.New("consensus rejected")

	// ErrDivisionUndefined means a price ratio had a zero denominator.
	ErrDivisionUndefined = errors.New("division undefined")

	// ErrInvalidRuleReference means an alert rule id does not exist.
	ErrInvalidRuleReference = errors.New("invalid alert rule reference")
)
