// Package errors provides structured error handling with gRPC status mapping.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session errors
	CodeSessionNotFound        Code = "SESSION_NOT_FOUND"
	CodeSessionNotActive       Code = "SESSION_NOT_ACTIVE"
	CodeSessionStale           Code = "SESSION_STALE_HANDLE"
	CodeSessionEmptyPersonaID  Code = "SESSION_EMPTY_PERSONA_ID"
	CodeSessionInvalidPhase    Code = "SESSION_INVALID_PHASE_TRANSITION"
	CodeSessionAlreadyArchived Code = "SESSION_ALREADY_ARCHIVED"

	// Turn errors
	CodeTurnOutOfOrder     Code = "TURN_OUT_OF_ORDER"
	CodeTurnEmptyUtterance Code = "TURN_EMPTY_UTTERANCE"

	// Detector/resolver errors
	CodeDetectorConfigGap Code = "DETECTOR_CONFIG_GAP"

	// Persona errors
	CodePersonaNotFound    Code = "PERSONA_NOT_FOUND"
	CodePersonaEmptyName   Code = "PERSONA_EMPTY_NAME"
	CodePersonaInvalidMood Code = "PERSONA_INVALID_BASELINE_MOOD"

	// Mood/action configuration errors
	CodeMoodUnknownDimension Code = "MOOD_UNKNOWN_DIMENSION"
	CodeActionInvalidCatalog Code = "ACTION_INVALID_CATALOG"
	CodeOutcomeInvalidConfig Code = "OUTCOME_INVALID_THRESHOLDS"

	// Generation collaborator errors
	CodeGenerationFailed  Code = "GENERATION_FAILED"
	CodeGenerationTimeout Code = "GENERATION_TIMEOUT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeSessionEmptyPersonaID,
		CodeTurnEmptyUtterance,
		CodePersonaEmptyName,
		CodePersonaInvalidMood,
		CodeMoodUnknownDimension,
		CodeActionInvalidCatalog,
		CodeOutcomeInvalidConfig:
		return codes.InvalidArgument

	// NotFound - missing entities
	case CodeSessionNotFound,
		CodePersonaNotFound,
		CodeNotFound:
		return codes.NotFound

	// FailedPrecondition - valid request, wrong state
	case CodeSessionNotActive,
		CodeSessionInvalidPhase,
		CodeSessionAlreadyArchived:
		return codes.FailedPrecondition

	// Aborted - concurrency conflicts and stale handles
	case CodeTurnOutOfOrder,
		CodeSessionStale:
		return codes.Aborted

	// Unavailable - external collaborator failures
	case CodeGenerationFailed:
		return codes.Unavailable
	case CodeGenerationTimeout:
		return codes.DeadlineExceeded

	// DetectorConfigGap is recovered locally; if it ever crosses a boundary
	// it is an internal configuration problem.
	case CodeDetectorConfigGap:
		return codes.Internal

	default:
		return codes.Internal
	}
}
