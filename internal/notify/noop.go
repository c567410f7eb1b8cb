package notify

import "gather/pkg/model"

// Noop discards every event. Used when notifications are disabled.
type Noop struct{}

func (Noop) Emit(model.DomainEvent) {}
