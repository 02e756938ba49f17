package service

import (
	"context"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/logger"
	"rideshare/internal/notify"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideRequested NotificationType = "RIDE_REQUESTED"
	NotificationRideAccepted  NotificationType = "RIDE_ACCEPTED"
	NotificationRideCompleted NotificationType = "RIDE_COMPLETED"
)

// Notification is the payload pushed to clients for a ride event.
type Notification struct {
	Type      NotificationType `json:"type"`
	RideID    string           `json:"rideId"`
	Status    string           `json:"status"`
	UserID    string           `json:"userId"`
	DriverID  string           `json:"driverId,omitempty"`
	Pickup    string           `json:"pickupLocation"`
	Drop      string           `json:"dropLocation"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Publisher delivers messages to connected clients.
type Publisher interface {
	SendToUser(userID string, msg notify.Message) int
	BroadcastToRole(role domain.Role, msg notify.Message) int
}

// Notifier receives ride lifecycle events from RideService.
type Notifier interface {
	RideRequested(ctx context.Context, ride *domain.Ride)
	RideAccepted(ctx context.Context, ride *domain.Ride)
	RideCompleted(ctx context.Context, ride *domain.Ride)
}

var _ Notifier = (*NotificationService)(nil)

// NotificationService turns ride events into realtime pushes.
// Delivery is best effort; a ride transition never fails because of it.
type NotificationService struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewNotificationService creates a new NotificationService. A nil publisher
// disables delivery.
func NewNotificationService(publisher Publisher, log *logger.Logger) *NotificationService {
	return &NotificationService{publisher: publisher, logger: log}
}

// RideRequested tells every connected driver about a new pending ride.
func (s *NotificationService) RideRequested(ctx context.Context, ride *domain.Ride) {
	if s.publisher == nil {
		return
	}
	n := s.publisher.BroadcastToRole(domain.RoleDriver, s.message(NotificationRideRequested, ride))
	s.logger.Debug("ride request broadcast",
		logger.String("ride_id", ride.ID),
		logger.Int("recipients", n),
	)
}

// RideAccepted tells the rider that a driver took the ride, and the other
// drivers that it is no longer pending.
func (s *NotificationService) RideAccepted(ctx context.Context, ride *domain.Ride) {
	if s.publisher == nil {
		return
	}
	msg := s.message(NotificationRideAccepted, ride)
	s.publisher.SendToUser(ride.UserID, msg)
	s.publisher.BroadcastToRole(domain.RoleDriver, msg)
}

// RideCompleted tells both participants the ride is finished.
func (s *NotificationService) RideCompleted(ctx context.Context, ride *domain.Ride) {
	if s.publisher == nil {
		return
	}
	msg := s.message(NotificationRideCompleted, ride)
	s.publisher.SendToUser(ride.UserID, msg)
	if ride.HasDriver() && ride.DriverID != ride.UserID {
		s.publisher.SendToUser(ride.DriverID, msg)
	}
}

func (s *NotificationService) message(t NotificationType, ride *domain.Ride) notify.Message {
	return notify.Message{
		Type: string(t),
		Data: Notification{
			Type:      t,
			RideID:    ride.ID,
			Status:    string(ride.Status),
			UserID:    ride.UserID,
			DriverID:  ride.DriverID,
			Pickup:    ride.PickupLocation,
			Drop:      ride.DropLocation,
			CreatedAt: ride.CreatedAt,
		},
	}
}
