// Package treespotter keeps a map and a list of tree sightings in sync with a
// live document collection.
//
// A single view model subscribes to the ten most recent sightings. Every
// change in the collection, local or remote, arrives as a complete snapshot
// which the model publishes to its observers; the list and the map both
// redraw from that one value, so they never disagree.
//
// Features:
//
//   - **Live queries**: Firestore snapshot listeners, go-memdb watch sets, or
//     fsnotify on a directory of YAML/JSON files.
//   - **One source of truth**: renderers observe the model and never hold their own copy.
//   - **Async writes**: add, favorite and delete report through an Op; the next
//     snapshot is authoritative.
//   - **Location aware**: trees are added at the current device location once
//     permission is granted.
//
// Usage:
//
//	trees, err := treespotter.Open(ctx, "./sightings",
//		treespotter.WithLogger(logger),
//	)
//
//	model, err := treespotter.NewModel(ctx, trees)
//	defer model.Close()
//
//	unsubscribe := model.Trees().Observe(func(list []*treespotter.Tree) {
//		// redraw
//	})
package treespotter
