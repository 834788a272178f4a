/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses and error events.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// A zero Status means the error travels only over the WebSocket channel.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrInvalidEventPayload:  {Code: ErrInvalidEventPayload, Message: "Event payload could not be read."},
	ErrUnsupportedEventType: {Code: ErrUnsupportedEventType, Message: "Unsupported event type."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Message and Content Errors
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrVoicePayloadTooLarge:  {Code: ErrVoicePayloadTooLarge, Message: "Voice recording is too large."},
	ErrVoicePayloadEmpty:     {Code: ErrVoicePayloadEmpty, Message: "Voice recording is empty."},
	ErrFileMetadataInvalid:   {Code: ErrFileMetadataInvalid, Message: "Invalid file attachment."},
	ErrUnknownPinTarget:      {Code: ErrUnknownPinTarget, Message: "Message id is required."},
	ErrReactionInvalid:       {Code: ErrReactionInvalid, Message: "Invalid reaction."},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrVoiceStorageFailed: {Code: ErrVoiceStorageFailed, Message: "Voice upload failed. Please try again."},
}
