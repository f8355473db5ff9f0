// Package view binds timelineview blocks to containers and keeps them
// rendered: the refresh-controller half of the system.
package view

import (
	"context"

	appLog "timelineview/internal/log"
	"timelineview/internal/render"
	"timelineview/internal/source"
	"timelineview/internal/vault"
)

// View is one mounted timelineview block: its immutable source text, its
// container, and its subscription to data refresh notifications.
type View struct {
	block     vault.Block
	container *render.Container
	pipeline  *render.Pipeline

	cancelRefresh func()
}

func newView(block vault.Block, pipeline *render.Pipeline) *View {
	return &View{
		block:     block,
		container: &render.Container{},
		pipeline:  pipeline,
	}
}

// ID returns the stable identifier of the underlying block.
func (v *View) ID() string {
	return v.block.ID()
}

// Doc returns the path of the document the block lives in.
func (v *View) Doc() string {
	return v.block.Doc
}

// Source returns the block's source text.
func (v *View) Source() string {
	return v.block.Source
}

// Container returns the view's mount target.
func (v *View) Container() *render.Container {
	return v.container
}

// HTML returns the currently mounted fragment.
func (v *View) HTML() []byte {
	return v.container.HTML()
}

// attach performs the initial render (the structural "inserted" trigger) and
// subscribes the view to data refresh notifications. Both triggers invoke
// the identical render entry point with the original source text.
func (v *View) attach(ctx context.Context, engine source.Engine) {
	v.renderOnce(ctx)
	v.cancelRefresh = engine.OnRefresh(func() {
		appLog.Debug("refresh notification", "view", v.ID())
		v.renderOnce(context.Background())
	})
}

// detach releases the refresh subscription. The container keeps its last
// content so a detach/attach cycle never flashes empty.
func (v *View) detach() {
	if v.cancelRefresh != nil {
		v.cancelRefresh()
		v.cancelRefresh = nil
	}
}

func (v *View) renderOnce(ctx context.Context) {
	if err := v.pipeline.Render(ctx, v.block.Source, v.container); err != nil {
		// Already logged (and, for configuration errors, mounted) by
		// the pipeline; render failures never propagate further.
		appLog.Debug("render pass failed", "view", v.ID(), "err", err)
	}
}
