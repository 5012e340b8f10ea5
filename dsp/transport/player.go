package transport

import "sync"

// StopFunc halts one playing clip instance.
type StopFunc func()

type instance struct {
	handle uint64
	stop   StopFunc
}

// Player allows at most one playing instance per clip id. Starting a clip
// stops the instance already playing under that id.
type Player struct {
	mu     sync.Mutex
	next   uint64
	active map[string]instance
}

// NewPlayer returns an idle player.
func NewPlayer() *Player {
	return &Player{active: make(map[string]instance)}
}

// Start records a new instance of clipID and returns its handle. The
// previous instance, if any, is stopped first.
func (p *Player) Start(clipID string, stop StopFunc) uint64 {
	p.mu.Lock()
	prev, had := p.active[clipID]
	p.next++
	h := p.next
	p.active[clipID] = instance{handle: h, stop: stop}
	p.mu.Unlock()

	if had && prev.stop != nil {
		prev.stop()
	}

	return h
}

// Stop halts the instance playing under clipID.
func (p *Player) Stop(clipID string) bool {
	p.mu.Lock()
	inst, ok := p.active[clipID]
	delete(p.active, clipID)
	p.mu.Unlock()

	if ok && inst.stop != nil {
		inst.stop()
	}
	return ok
}

// StopAll halts every instance and returns how many were playing.
func (p *Player) StopAll() int {
	p.mu.Lock()
	active := p.active
	p.active = make(map[string]instance)
	p.mu.Unlock()

	for _, inst := range active {
		if inst.stop != nil {
			inst.stop()
		}
	}
	return len(active)
}

// Release forgets an instance that finished on its own. A stale handle
// from an instance that was already replaced is ignored.
func (p *Player) Release(clipID string, handle uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if inst, ok := p.active[clipID]; ok && inst.handle == handle {
		delete(p.active, clipID)
	}
}

// Playing reports whether clipID has a live instance.
func (p *Player) Playing(clipID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.active[clipID]
	return ok
}

// Len returns the number of live instances.
func (p *Player) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}
