package allowlist

import (
	"sync"

	"github.com/guildnet/guild-oracle/model/guild"
)

// Registry holds the lists an operator knows about, keyed by root.
type Registry struct {
	mu    sync.RWMutex
	lists map[guild.Hash]*Allowlist
}

func NewRegistry() *Registry {
	return &Registry{lists: make(map[guild.Hash]*Allowlist)}
}

// Add registers list and returns its root.
func (r *Registry) Add(list *Allowlist) guild.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	root := list.Root()
	r.lists[root] = list
	return root
}

func (r *Registry) Allowlist(root guild.Hash) (*Allowlist, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list, ok := r.lists[root]
	return list, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lists)
}
