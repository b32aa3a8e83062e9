// Package realtime is the live-connection core: the session registry, the
// per-connection session lifecycle and the broadcaster that fans events
// out to the right channels.
package realtime

import (
	"log/slog"
	"sync"

	"chat-backend/contract"
	"chat-backend/domain"
	"chat-backend/observability"
)

// Registry is the single shared index from channel key to the sessions
// currently attached to it. All mutation funnels through Register and
// Unregister; FanOut snapshots its targets under the read lock and
// performs sends outside it, so a slow peer never blocks registration on
// any channel.
type Registry struct {
	mu       sync.RWMutex
	channels map[domain.ChannelKey]map[contract.Session]struct{}
	log      *slog.Logger
	metrics  *observability.Metrics
}

func NewRegistry(log *slog.Logger, metrics *observability.Metrics) *Registry {
	return &Registry{
		channels: make(map[domain.ChannelKey]map[contract.Session]struct{}),
		log:      log,
		metrics:  metrics,
	}
}

// Register adds session to the set for key, creating the set if absent.
// Registering the same session twice under the same key is a no-op.
func (r *Registry) Register(key domain.ChannelKey, session contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[key]
	if !ok {
		set = make(map[contract.Session]struct{})
		r.channels[key] = set
	}
	if _, ok := set[session]; ok {
		return
	}
	set[session] = struct{}{}

	r.metrics.ActiveSessions.WithLabelValues(key.Kind.String()).Inc()
	r.log.Debug("session registered", "channel", key, "session", session.ID(), "channel_size", len(set))
}

// Unregister removes session from the set for key. Removing an absent
// session is a no-op; the set is dropped entirely once empty so memory
// stays bounded to active channels.
func (r *Registry) Unregister(key domain.ChannelKey, session contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[key]
	if !ok {
		return
	}
	if _, ok := set[session]; !ok {
		return
	}
	delete(set, session)
	if len(set) == 0 {
		delete(r.channels, key)
	}

	r.metrics.ActiveSessions.WithLabelValues(key.Kind.String()).Dec()
	r.log.Debug("session unregistered", "channel", key, "session", session.ID())
}

// FanOut sends payload to every session currently registered under key.
// A failed send never aborts delivery to the remaining sessions and never
// surfaces to the caller; the failed session is unregistered and closed
// instead.
func (r *Registry) FanOut(key domain.ChannelKey, payload []byte) {
	targets := r.snapshot(key)

	var failed []contract.Session
	for _, session := range targets {
		if err := session.Send(payload); err != nil {
			r.log.Warn("fanout send failed", "channel", key, "session", session.ID(), "error", err)
			failed = append(failed, session)
			continue
		}
		r.metrics.FanoutDeliveries.WithLabelValues(key.Kind.String()).Inc()
	}

	for _, session := range failed {
		r.metrics.FanoutFailures.WithLabelValues(key.Kind.String()).Inc()
		r.Unregister(key, session)
		session.Close()
	}
}

// FanOutMany notifies several channels, each with its own payload. Every
// channel is handled independently.
func (r *Registry) FanOutMany(payloads map[domain.ChannelKey][]byte) {
	for key, payload := range payloads {
		r.FanOut(key, payload)
	}
}

// CloseAll closes every registered session. Used on server shutdown;
// each session's own close path performs its unregistration.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	var all []contract.Session
	for _, set := range r.channels {
		for session := range set {
			all = append(all, session)
		}
	}
	r.mu.RUnlock()

	for _, session := range all {
		session.Close()
	}
}

// snapshot copies the target set under the read lock so network sends
// happen without holding it.
func (r *Registry) snapshot(key domain.ChannelKey) []contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.channels[key]
	if !ok {
		return nil
	}
	targets := make([]contract.Session, 0, len(set))
	for session := range set {
		targets = append(targets, session)
	}
	return targets
}
