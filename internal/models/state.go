package models

import "fmt"

// BookingState selects a temporal or status partition of bookings.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StateFuture   BookingState = "FUTURE"
	StatePast     BookingState = "PAST"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

var bookingStates = map[string]BookingState{
	string(StateAll):      StateAll,
	string(StateCurrent):  StateCurrent,
	string(StateFuture):   StateFuture,
	string(StatePast):     StatePast,
	string(StateWaiting):  StateWaiting,
	string(StateRejected): StateRejected,
}

// UnsupportedStateError reports a state token outside the vocabulary.
type UnsupportedStateError struct {
	Token string
}

func (e *UnsupportedStateError) Error() string {
	return fmt.Sprintf("Unknown state: %s", e.Token)
}

// ParseBookingState matches token case-sensitively. An empty token means ALL.
func ParseBookingState(token string) (BookingState, error) {
	if token == "" {
		return StateAll, nil
	}
	state, ok := bookingStates[token]
	if !ok {
		return "", &UnsupportedStateError{Token: token}
	}
	return state, nil
}
