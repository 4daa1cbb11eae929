/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat Business Logic Errors
const (
	// ErrInvalidRoom indicates that a client-supplied room id does not match the id derived from the user pair.
	ErrInvalidRoom = 2101

	// ErrNotFound indicates that the referenced entity has no data.
	ErrNotFound = 2103

	// ErrMessageContentTooLong indicates that the user's message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201

	// ErrNotIdentified indicates that a real-time event requiring an identified connection arrived before user:join.
	ErrNotIdentified = 2202

	// ErrUnknownEvent indicates that the client sent an event name the gateway does not handle.
	ErrUnknownEvent = 2203

	// ErrFileSizeTooLarge indicates that an attachment exceeds the size limit.
	ErrFileSizeTooLarge = 2301

	// ErrAttachmentKeyInvalid indicates that an attachment key is not scoped to the message's room.
	ErrAttachmentKeyInvalid = 2302

	// ErrAttachmentsDisabled indicates that object storage is not configured.
	ErrAttachmentsDisabled = 2303
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates that the request carries no verified identity.
	ErrUnauthorized = 3001

	// ErrForbidden indicates that the acting user is not a party to the room.
	ErrForbidden = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrPersistence indicates that the message store could not complete the operation.
	ErrPersistence = 5001

	// ErrDeliveryTimeout indicates that persisting a message did not finish in time.
	ErrDeliveryTimeout = 5002

	// ErrFileStorageFailed indicates that the object storage call failed.
	ErrFileStorageFailed = 5003
)
