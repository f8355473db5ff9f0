package view

import (
	"context"
	"sort"
	"sync"

	appLog "timelineview/internal/log"
	"timelineview/internal/render"
	"timelineview/internal/source"
	"timelineview/internal/vault"
)

// Registry owns all mounted views and reconciles them against vault scans.
type Registry struct {
	engine   source.Engine
	pipeline *render.Pipeline

	mu    sync.RWMutex
	views map[string]*View
}

func NewRegistry(engine source.Engine, pipeline *render.Pipeline) *Registry {
	return &Registry{
		engine:   engine,
		pipeline: pipeline,
		views:    map[string]*View{},
	}
}

// Apply reconciles the registry with the latest scan result:
//
//   - unseen blocks are mounted (attach: initial render + subscription)
//   - blocks whose source text changed are remounted
//   - blocks that disappeared are detached and dropped
func (r *Registry) Apply(ctx context.Context, blocks []vault.Block) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(blocks))
	for _, block := range blocks {
		seen[block.ID()] = true

		existing, ok := r.views[block.ID()]
		if ok && existing.Source() == block.Source {
			continue
		}
		if ok {
			existing.detach()
			appLog.Info("view source changed, remounting", "view", block.ID())
		} else {
			appLog.Info("mounting view", "view", block.ID())
		}

		v := newView(block, r.pipeline)
		r.views[block.ID()] = v
		v.attach(ctx, r.engine)
	}

	for id, v := range r.views {
		if !seen[id] {
			appLog.Info("view removed, unmounting", "view", id)
			v.detach()
			delete(r.views, id)
		}
	}
}

// Get returns the view with the given ID.
func (r *Registry) Get(id string) (*View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[id]
	return v, ok
}

// List returns all views ordered by ID.
func (r *Registry) List() []*View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Close detaches every view.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.views {
		v.detach()
		delete(r.views, id)
	}
}
