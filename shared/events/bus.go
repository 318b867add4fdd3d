/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// Handler processes events of type T.
type Handler[T Event] func(ctx context.Context, event T) error

// dispatchFunc is a Handler with the event type erased.
type dispatchFunc func(ctx context.Context, event Event) error

// EventBus delivers token lifecycle events to the handlers subscribed to
// their type. Delivery is synchronous and in subscription order, so a
// publisher observes its events handled before Publish returns.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]dispatchFunc
	log      logr.Logger
}

// NewEventBus creates an empty bus.
func NewEventBus(log logr.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]dispatchFunc),
		log:      log,
	}
}

// Subscribe registers handler for every published event of type T.
func Subscribe[T Event](bus *EventBus, handler Handler[T]) {
	var zero T
	eventType := zero.Type()

	dispatch := func(ctx context.Context, event Event) error {
		typed, ok := event.(T)
		if !ok {
			return fmt.Errorf("event %s has type %T, handler expects %T", eventType, event, zero)
		}
		return handler(ctx, typed)
	}

	bus.mu.Lock()
	bus.handlers[eventType] = append(bus.handlers[eventType], dispatch)
	bus.mu.Unlock()

	bus.log.V(1).Info("handler subscribed", "eventType", eventType)
}

// Publish hands event to each subscribed handler. A failing handler does not
// stop the others; all handler errors are joined into the result.
func (b *EventBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.Type()]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	var errs []error
	for i, dispatch := range handlers {
		if err := dispatch(ctx, event); err != nil {
			b.log.Error(err, "handler failed", "type", event.Type(), "handlerIndex", i)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
