package service

import "errors"

var (
	// ErrUserNotFound is returned when the acting principal has no stored user.
	ErrUserNotFound = errors.New("user not found")

	// ErrRideNotFound is returned when a ride ID does not resolve to a ride.
	ErrRideNotFound = errors.New("ride not found")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidLocation is returned when pickup or drop location is blank.
	ErrInvalidLocation = errors.New("pickup and drop locations are required")

	// ErrInvalidRideState is returned when a ride is not in the status the
	// requested transition starts from.
	ErrInvalidRideState = errors.New("ride is not in a valid state for this operation")

	// ErrRideConflict is returned when a concurrent request moved the ride first.
	ErrRideConflict = errors.New("ride was modified by another request")

	// ErrForbidden is returned when the principal may not act on the ride.
	ErrForbidden = errors.New("not allowed to perform this operation")

	// ErrInvalidRole is returned when a role outside ROLE_USER/ROLE_DRIVER is given.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidCredentialsInput is returned when username or password fail validation.
	ErrInvalidCredentialsInput = errors.New("username must be 3-50 characters and password at least 6")

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrBadCredentials is returned for an unknown username or a wrong password.
	ErrBadCredentials = errors.New("invalid username or password")
)
