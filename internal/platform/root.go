package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFile is the per-directory configuration file name.
const ConfigFile = "treespotter.yaml"

// MarkerDir is the hidden directory the fs adapter keeps next to the sightings.
const MarkerDir = ".treespotter"

// ErrRootNotFound is returned when no directory up the tree is a sightings root.
var ErrRootNotFound = errors.New("sightings root not found")

// Root is a sightings directory found on disk.
type Root struct {
	// Dir is the absolute directory holding the marker or the config file.
	Dir string
	// Config is the absolute path of treespotter.yaml, empty if Dir has none.
	Config string
}

// Locate walks up from startDir to the nearest directory that holds a
// treespotter.yaml file or a .treespotter directory. A config file wins over
// a marker found further up.
func Locate(startDir string) (Root, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Root{}, err
	}

	for {
		cfg := filepath.Join(dir, ConfigFile)
		if isFile(cfg) {
			return Root{Dir: dir, Config: cfg}, nil
		}
		if isDir(filepath.Join(dir, MarkerDir)) {
			return Root{Dir: dir}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Root{}, ErrRootNotFound
		}
		dir = parent
	}
}

// Resolve anchors a relative sightings path at the root directory.
func (r Root) Resolve(path string) string {
	if path == "" {
		return r.Dir
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.Dir, path)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
