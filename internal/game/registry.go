package game

// Registry holds players in join order. Iteration order is insertion order,
// which makes every "first living player" and nearest-target tie-break
// deterministic.
type Registry struct {
	order []*Player
	index map[string]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		order: make([]*Player, 0, 16),
		index: make(map[string]int),
	}
}

// Add registers a player. Returns false if the identity is already taken.
func (r *Registry) Add(p *Player) bool {
	if _, ok := r.index[p.ID]; ok {
		return false
	}
	r.index[p.ID] = len(r.order)
	r.order = append(r.order, p)
	return true
}

// Remove deletes a player, keeping the relative order of the rest.
// Returns the removed player or nil.
func (r *Registry) Remove(id string) *Player {
	i, ok := r.index[id]
	if !ok {
		return nil
	}
	p := r.order[i]
	r.order = append(r.order[:i], r.order[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.order); j++ {
		r.index[r.order[j].ID] = j
	}
	return p
}

// Get returns the player with the given identity or nil
func (r *Registry) Get(id string) *Player {
	if i, ok := r.index[id]; ok {
		return r.order[i]
	}
	return nil
}

// Len returns the number of registered players
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns players in join order. The slice must not be modified.
func (r *Registry) All() []*Player {
	return r.order
}

// FirstAlive returns the earliest-joined living player, or nil
func (r *Registry) FirstAlive() *Player {
	for _, p := range r.order {
		if p.Alive {
			return p
		}
	}
	return nil
}

// NearestAlive returns the living player closest to (x, y). Ties go to the
// earlier-joined player.
func (r *Registry) NearestAlive(x, y float64) *Player {
	var nearest *Player
	best := 0.0
	for _, p := range r.order {
		if !p.Alive {
			continue
		}
		d := Distance(x, y, p.X, p.Y)
		if nearest == nil || d < best {
			nearest = p
			best = d
		}
	}
	return nearest
}
