package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column in outbox_events.
type OutboxAggregateType string

const (
	AggregateSession  OutboxAggregateType = "session"
	AggregateProduct  OutboxAggregateType = "product"
	AggregateCategory OutboxAggregateType = "category"
	AggregateDiscount OutboxAggregateType = "discount"
	AggregateUser     OutboxAggregateType = "user"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSession,
	AggregateProduct,
	AggregateCategory,
	AggregateDiscount,
	AggregateUser,
}

// IsValid reports whether the value matches the canonical aggregate set.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column in outbox_events.
type OutboxEventType string

const (
	EventCartCleared      OutboxEventType = "cart.cleared"
	EventSessionAbandoned OutboxEventType = "session.abandoned"
	EventProductCreated   OutboxEventType = "product.created"
	EventProductUpdated   OutboxEventType = "product.updated"
	EventProductDeleted   OutboxEventType = "product.deleted"
	EventCategoryCreated  OutboxEventType = "category.created"
	EventCategoryDeleted  OutboxEventType = "category.deleted"
	EventDiscountCreated  OutboxEventType = "discount.created"
	EventDiscountDeleted  OutboxEventType = "discount.deleted"
	EventUserRegistered   OutboxEventType = "user.registered"
)

var validOutboxEventTypes = []OutboxEventType{
	EventCartCleared,
	EventSessionAbandoned,
	EventProductCreated,
	EventProductUpdated,
	EventProductDeleted,
	EventCategoryCreated,
	EventCategoryDeleted,
	EventDiscountCreated,
	EventDiscountDeleted,
	EventUserRegistered,
}

// IsValid reports whether the value matches the canonical event set.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
