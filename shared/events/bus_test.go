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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
)

// validatedLookalike reports the TokenValidated type but is a different Go type.
type validatedLookalike struct {
	BaseEvent
}

func (validatedLookalike) Type() string {
	return TokenValidatedType
}

func TestPublish_DeliversTypedEvents(t *testing.T) {
	bus := NewEventBus(logr.Discard())

	var renewed TokenRenewed
	var failed TokenRenewalFailed
	var scheduled []RenewalScheduled
	Subscribe(bus, func(_ context.Context, e TokenRenewed) error {
		renewed = e
		return nil
	})
	Subscribe(bus, func(_ context.Context, e TokenRenewalFailed) error {
		failed = e
		return nil
	})
	Subscribe(bus, func(_ context.Context, e RenewalScheduled) error {
		scheduled = append(scheduled, e)
		return nil
	})

	ctx := context.Background()
	for _, event := range []Event{
		NewRenewalScheduled(50*time.Minute, ScheduleReasonInitial),
		NewTokenRenewed(30*time.Minute, 4),
		NewRenewalScheduled(20*time.Minute, ScheduleReasonRenewed),
		NewTokenRenewalFailed("permission denied", 2, 5*time.Second),
		NewRenewalScheduled(5*time.Second, ScheduleReasonRetry),
	} {
		if err := bus.Publish(ctx, event); err != nil {
			t.Fatalf("Publish(%s) error = %v", event.Type(), err)
		}
	}

	if renewed.LeaseDuration != 30*time.Minute || renewed.RenewalCount != 4 {
		t.Errorf("TokenRenewed = %+v, want 30m/4", renewed)
	}
	if failed.Error != "permission denied" || failed.RetryCount != 2 || failed.RetryIn != 5*time.Second {
		t.Errorf("TokenRenewalFailed = %+v", failed)
	}

	wantReasons := []string{ScheduleReasonInitial, ScheduleReasonRenewed, ScheduleReasonRetry}
	if len(scheduled) != len(wantReasons) {
		t.Fatalf("RenewalScheduled events = %d, want %d", len(scheduled), len(wantReasons))
	}
	for i, want := range wantReasons {
		if scheduled[i].Reason != want {
			t.Errorf("scheduled[%d].Reason = %q, want %q", i, scheduled[i].Reason, want)
		}
	}
}

func TestPublish_NoHandlers(t *testing.T) {
	bus := NewEventBus(logr.Discard())

	if err := bus.Publish(context.Background(), NewTokenValidated("https://vault:8200", time.Hour, true)); err != nil {
		t.Errorf("Publish() error = %v, want nil", err)
	}
}

func TestPublish_TypeMismatch(t *testing.T) {
	bus := NewEventBus(logr.Discard())

	called := false
	Subscribe(bus, func(_ context.Context, _ TokenValidated) error {
		called = true
		return nil
	})

	err := bus.Publish(context.Background(), validatedLookalike{})
	if err == nil {
		t.Error("Publish() error = nil, want type mismatch")
	}
	if called {
		t.Error("handler called with an event of the wrong Go type")
	}
}

func TestPublish_ContinuesAfterHandlerError(t *testing.T) {
	bus := NewEventBus(logr.Discard())

	first := errors.New("first handler failed")
	third := errors.New("third handler failed")
	var calls atomic.Int32
	for _, result := range []error{first, nil, third} {
		result := result
		Subscribe(bus, func(_ context.Context, _ TokenNotRenewable) error {
			calls.Add(1)
			return result
		})
	}

	err := bus.Publish(context.Background(), NewTokenNotRenewable("https://vault:8200", time.Minute))

	if got := calls.Load(); got != 3 {
		t.Errorf("handler calls = %d, want 3", got)
	}
	if !errors.Is(err, first) || !errors.Is(err, third) {
		t.Errorf("Publish() error = %v, want both handler errors", err)
	}
}

func TestEventBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewEventBus(logr.Discard())

	var wg sync.WaitGroup
	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Subscribe(bus, func(_ context.Context, _ TokenValidated) error {
				calls.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), NewTokenValidated("https://vault:8200", time.Hour, true))
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 50 {
		t.Errorf("handler calls = %d, want 50", got)
	}
}

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(TokenRenewedType)

	if event.Type() != TokenRenewedType {
		t.Errorf("Type() = %q, want %q", event.Type(), TokenRenewedType)
	}
	if time.Since(event.Timestamp()) > time.Second {
		t.Errorf("Timestamp() = %v, want recent", event.Timestamp())
	}
}
