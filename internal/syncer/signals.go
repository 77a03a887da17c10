package syncer

import "sync"

// Notifier fans sync lifecycle notifications out to the view layer and any
// observability subscriber. Zero handlers is fine.
type Notifier struct {
	mu         sync.Mutex
	started    []func()
	succeeded  []func(View)
	failed     []func(error)
	conflicted []func([]Conflict)
	applied    []func(Mutation)
	confirmed  []func(Mutation)
	rolledBack []func(Mutation, error)
}

// OnSyncStarted registers a handler fired when a fetch-and-merge cycle begins.
func (n *Notifier) OnSyncStarted(h func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, h)
}

// OnSyncSucceeded registers a handler fired with the merged view after a
// successful cycle.
func (n *Notifier) OnSyncSucceeded(h func(View)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.succeeded = append(n.succeeded, h)
}

// OnSyncFailed registers a handler fired when a cycle aborts. The previous
// view stays intact.
func (n *Notifier) OnSyncFailed(h func(error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, h)
}

// OnConflicts registers a handler fired with the advisory conflicts detected
// in a cycle.
func (n *Notifier) OnConflicts(h func([]Conflict)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conflicted = append(n.conflicted, h)
}

// OnOptimisticApplied registers a handler fired when a mutation is shown
// locally before the server confirms it.
func (n *Notifier) OnOptimisticApplied(h func(Mutation)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applied = append(n.applied, h)
}

// OnConfirmed registers a handler fired when the server accepts a mutation.
func (n *Notifier) OnConfirmed(h func(Mutation)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, h)
}

// OnRolledBack registers a handler fired when a mutation fails and its
// optimistic value has been reverted.
func (n *Notifier) OnRolledBack(h func(Mutation, error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rolledBack = append(n.rolledBack, h)
}

func (n *Notifier) emitStarted() {
	for _, h := range n.snapshotStarted() {
		h()
	}
}

func (n *Notifier) snapshotStarted() []func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]func(){}, n.started...)
}

func (n *Notifier) emitSucceeded(v View) {
	n.mu.Lock()
	handlers := append([]func(View){}, n.succeeded...)
	n.mu.Unlock()
	for _, h := range handlers {
		h(v)
	}
}

func (n *Notifier) emitFailed(err error) {
	n.mu.Lock()
	handlers := append([]func(error){}, n.failed...)
	n.mu.Unlock()
	for _, h := range handlers {
		h(err)
	}
}

func (n *Notifier) emitConflicts(conflicts []Conflict) {
	n.mu.Lock()
	handlers := append([]func([]Conflict){}, n.conflicted...)
	n.mu.Unlock()
	for _, h := range handlers {
		h(conflicts)
	}
}

func (n *Notifier) emitApplied(m Mutation) {
	n.mu.Lock()
	handlers := append([]func(Mutation){}, n.applied...)
	n.mu.Unlock()
	for _, h := range handlers {
		h(m)
	}
}

func (n *Notifier) emitConfirmed(m Mutation) {
	n.mu.Lock()
	handlers := append([]func(Mutation){}, n.confirmed...)
	n.mu.Unlock()
	for _, h := range handlers {
		h(m)
	}
}

func (n *Notifier) emitRolledBack(m Mutation, err error) {
	n.mu.Lock()
	handlers := append([]func(Mutation, error){}, n.rolledBack...)
	n.mu.Unlock()
	for _, h := range handlers {
		h(m, err)
	}
}
