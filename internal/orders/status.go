package orders

import "harvestly/internal/models"

// forward holds the normal delivery flow. Cancelled and Returned are reached
// only through CancelOrder and ReturnOrder.
var forward = map[models.OrderStatus]models.OrderStatus{
	models.StatusConfirmed:      models.StatusProcessing,
	models.StatusProcessing:     models.StatusOutForDelivery,
	models.StatusOutForDelivery: models.StatusDelivered,
}

// NextStatus returns the status that follows from in the delivery flow.
func NextStatus(from models.OrderStatus) (models.OrderStatus, bool) {
	next, ok := forward[from]
	return next, ok
}

// CanTransition reports whether from → to is an edge of the order state
// machine, including the cancel and return edges.
func CanTransition(from, to models.OrderStatus) bool {
	switch to {
	case models.StatusCancelled:
		return !from.Terminal()
	case models.StatusReturned:
		return from == models.StatusDelivered
	}
	next, ok := forward[from]
	return ok && next == to
}

func describe(status models.OrderStatus, reason string) string {
	switch status {
	case models.StatusConfirmed:
		return "Your order has been confirmed and is being processed"
	case models.StatusProcessing:
		return "Your order is being prepared by the farmer"
	case models.StatusOutForDelivery:
		return "Your order is out for delivery"
	case models.StatusDelivered:
		return "Your order has been delivered"
	case models.StatusCancelled:
		return "Order cancelled: " + reason
	case models.StatusReturned:
		return "Order returned: " + reason
	}
	return string(status)
}
