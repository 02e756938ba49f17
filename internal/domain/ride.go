package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested RideStatus = "REQUESTED"
	RideStatusAccepted  RideStatus = "ACCEPTED"
	RideStatusCompleted RideStatus = "COMPLETED"
)

// ParseRideStatus converts a raw status string into a RideStatus.
func ParseRideStatus(s string) (RideStatus, bool) {
	switch RideStatus(s) {
	case RideStatusRequested, RideStatusAccepted, RideStatusCompleted:
		return RideStatus(s), true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether a ride in status s may move to next.
// Rides only move forward one step at a time; COMPLETED is terminal.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	switch s {
	case RideStatusRequested:
		return next == RideStatusAccepted
	case RideStatusAccepted:
		return next == RideStatusCompleted
	case RideStatusCompleted:
		return false
	default:
		return false
	}
}

// Ride represents a ride request in the system.
type Ride struct {
	ID             string     `bson:"_id"`
	UserID         string     `bson:"user_id"`
	DriverID       string     `bson:"driver_id,omitempty"` // empty until accepted
	PickupLocation string     `bson:"pickup_location"`
	DropLocation   string     `bson:"drop_location"`
	Status         RideStatus `bson:"status"`
	CreatedAt      time.Time  `bson:"created_at"`
	AcceptedAt     time.Time  `bson:"accepted_at,omitempty"`
	CompletedAt    time.Time  `bson:"completed_at,omitempty"`
}

// HasDriver reports whether a driver has been bound to the ride.
func (r *Ride) HasDriver() bool {
	return r.DriverID != ""
}

// IsParticipant reports whether userID is the ride's rider or its assigned driver.
func (r *Ride) IsParticipant(userID string) bool {
	return userID != "" && (r.UserID == userID || r.DriverID == userID)
}

// RideUpdate holds the fields written by a status transition.
// Zero-valued fields are left untouched.
type RideUpdate struct {
	Status      RideStatus
	DriverID    string
	AcceptedAt  time.Time
	CompletedAt time.Time
}

// Apply copies the non-zero fields of u onto r.
func (u RideUpdate) Apply(r *Ride) {
	if u.Status != "" {
		r.Status = u.Status
	}
	if u.DriverID != "" {
		r.DriverID = u.DriverID
	}
	if !u.AcceptedAt.IsZero() {
		r.AcceptedAt = u.AcceptedAt
	}
	if !u.CompletedAt.IsZero() {
		r.CompletedAt = u.CompletedAt
	}
}
