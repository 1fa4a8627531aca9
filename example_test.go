package treespotter_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aretw0/treespotter"
)

// Example_basic opens an in-memory store, records two sightings and reads the
// recent feed back.
func Example_basic() {
	ctx := context.Background()

	trees, err := treespotter.Open(ctx, "", treespotter.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}
	defer trees.Collection().Close()

	morning := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	oak := &treespotter.Tree{Name: "Oak", DateSpotted: morning, Favorite: true}
	pine := &treespotter.Tree{Name: "Pine", DateSpotted: morning.Add(time.Hour)}

	for _, t := range []*treespotter.Tree{oak, pine} {
		if err := trees.Create(ctx, t); err != nil {
			log.Fatal(err)
		}
	}

	recent, err := trees.Recent(ctx, 10)
	if err != nil {
		log.Fatal(err)
	}
	for _, t := range recent {
		fmt.Printf("%s favorite=%v\n", t.Label(), t.Favorite)
	}
	// Output:
	// Pine favorite=false
	// Oak favorite=true
}

// ExampleNewModel observes the live list through the shared view model.
func ExampleNewModel() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trees, err := treespotter.Open(ctx, "", treespotter.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}

	model, err := treespotter.NewModel(ctx, trees)
	if err != nil {
		log.Fatal(err)
	}
	defer model.Close()

	seen := make(chan int, 16)
	unsubscribe := model.Trees().Observe(func(list []*treespotter.Tree) {
		seen <- len(list)
	})
	defer unsubscribe()

	if err := model.AddTree(ctx, treespotter.NewTree("Cedar", nil)).Wait(ctx); err != nil {
		log.Fatal(err)
	}

	for n := range seen {
		if n == 1 {
			fmt.Println("list has 1 tree")
			break
		}
	}
	// Output:
	// list has 1 tree
}
