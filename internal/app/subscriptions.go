package app

import (
	"errors"
	"sync"

	"github.com/dshills/vimoptions/internal/config/notify"
	"github.com/dshills/vimoptions/internal/host"
)

// subscriptionManager owns every registration made during activation.
type subscriptionManager struct {
	mu   sync.Mutex
	subs []host.Subscription
}

func newSubscriptionManager() *subscriptionManager {
	return &subscriptionManager{}
}

// add records s for disposal.
func (sm *subscriptionManager) add(s host.Subscription) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.subs = append(sm.subs, s)
}

// addConfig records a settings subscription.
func (sm *subscriptionManager) addConfig(s *notify.Subscription) {
	sm.add(host.SubscriptionFunc(func() error {
		s.Unsubscribe()
		return nil
	}))
}

// len returns the number of live registrations.
func (sm *subscriptionManager) len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.subs)
}

// disposeAll disposes registrations newest first. Every registration is
// disposed even when some fail; the failures are joined.
func (sm *subscriptionManager) disposeAll() error {
	sm.mu.Lock()
	subs := sm.subs
	sm.subs = nil
	sm.mu.Unlock()

	var errs []error
	for i := len(subs) - 1; i >= 0; i-- {
		if err := subs[i].Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
