package treespotter

import (
	_ "embed"
)

//go:embed VERSION
var Version string
