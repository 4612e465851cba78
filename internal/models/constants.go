package models

// BookingStatus is the persisted lifecycle status of a booking.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

const (
	// HeaderUserID carries the client-asserted caller identity.
	HeaderUserID = "X-Sharer-User-Id"

	// DefaultPageSize is used when the size query parameter is absent.
	DefaultPageSize = 10

	// WorkerQueueSize is the buffer of the in-memory sync queue.
	WorkerQueueSize = 1000

	// SheetsCacheTTL is the lifetime of the booking row cache, in seconds.
	SheetsCacheTTL = 60 * 60
)
