package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeOrderPlaced   NotificationType = "order_placed"
	NotificationTypeOrderStatus   NotificationType = "order_status"
	NotificationTypeOrderCanceled NotificationType = "order_canceled"
	NotificationTypePaymentFailed NotificationType = "payment_failed"
	NotificationTypeSystemMessage NotificationType = "system_message"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderStatus,
	NotificationTypeOrderCanceled,
	NotificationTypePaymentFailed,
	NotificationTypeSystemMessage,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
