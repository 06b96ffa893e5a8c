package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cookedzera/RetroQuery/internal/store"
)

// WriteDataset serializes profiles as a YAML dataset at path, creating parent
// directories as needed.
func WriteDataset(profiles []store.Profile, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := store.Encode(file, profiles); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
