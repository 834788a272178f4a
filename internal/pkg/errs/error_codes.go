/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both within the
server and in error events delivered to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidEventPayload indicates a WebSocket event payload that failed to decode.
	ErrInvalidEventPayload = 1002

	// ErrUnsupportedEventType indicates an inbound event type the server does not handle.
	ErrUnsupportedEventType = 1003

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1004
)

// 2xxx: Message and Content Errors
const (
	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length.
	ErrMessageContentTooLong = 2001

	// ErrVoicePayloadTooLarge indicates a voice recording exceeding the maximum payload size.
	ErrVoicePayloadTooLarge = 2002

	// ErrVoicePayloadEmpty indicates a voice event carrying no audio bytes.
	ErrVoicePayloadEmpty = 2003

	// ErrFileMetadataInvalid indicates file metadata with a disallowed or mismatched type.
	ErrFileMetadataInvalid = 2004

	// ErrUnknownPinTarget indicates a pin or read request with an empty message id.
	ErrUnknownPinTarget = 2005

	// ErrReactionInvalid indicates a reaction event with a missing field or unknown action.
	ErrReactionInvalid = 2006
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000

	// ErrVoiceStorageFailed indicates that writing a voice recording to the blob store failed.
	ErrVoiceStorageFailed = 5001
)
