package transport

import "sync"

// Notifier is a one-to-many notification point for transport outcomes. The
// transport does not require any subscriber; zero handlers is fine.
type Notifier struct {
	mu        sync.Mutex
	succeeded []func(endpoint string)
	failed    []func(endpoint string, err error)
	restored  []func()
}

// OnMutationSucceeded registers a handler fired after every successful
// mutation, including drained queue entries.
func (n *Notifier) OnMutationSucceeded(h func(endpoint string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.succeeded = append(n.succeeded, h)
}

// OnMutationFailed registers a handler fired when a mutation exhausts its
// retries or is rejected by the server.
func (n *Notifier) OnMutationFailed(h func(endpoint string, err error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, h)
}

// OnNetworkRestored registers a handler fired after the offline queue has
// been drained following a reconnect.
func (n *Notifier) OnNetworkRestored(h func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.restored = append(n.restored, h)
}

func (n *Notifier) emitMutationSucceeded(endpoint string) {
	n.mu.Lock()
	handlers := append([]func(string){}, n.succeeded...)
	n.mu.Unlock()
	for _, h := range handlers {
		h(endpoint)
	}
}

func (n *Notifier) emitMutationFailed(endpoint string, err error) {
	n.mu.Lock()
	handlers := append([]func(string, error){}, n.failed...)
	n.mu.Unlock()
	for _, h := range handlers {
		h(endpoint, err)
	}
}

func (n *Notifier) emitNetworkRestored() {
	n.mu.Lock()
	handlers := append([]func(){}, n.restored...)
	n.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}
