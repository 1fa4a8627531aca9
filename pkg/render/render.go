// Package render draws the shared tree list as a list view and as a map.
//
// Both renderers observe a viewstate.Source and reconcile by clearing and
// redrawing on every snapshot, so delivering the same snapshot twice leaves
// the same output. Call Detach when a renderer is torn down.
package render

import (
	"context"

	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

// Mutator is the subset of the view model renderers write through.
type Mutator interface {
	AddTree(ctx context.Context, t *core.Tree) *viewstate.Op
	SetFavorite(ctx context.Context, t *core.Tree, favorite bool) *viewstate.Op
	DeleteTree(ctx context.Context, t *core.Tree) *viewstate.Op
}

// LocationProvider returns the current device location.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (core.GeoPoint, error)
}

// Permissions resolves the location permission.
type Permissions interface {
	RequestLocation(ctx context.Context) (granted bool, err error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Notifier shows a short transient message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

var _ Mutator = (*viewstate.Model)(nil)
