package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thomas-vilte/gemscout/internal/models"
)

// WriteExport writes the publishable verdicts of a batch as a JSON array,
// approvals first.
func WriteExport(path string, batch models.BatchResult) error {
	data, err := json.MarshalIndent(batch.Publishable(), "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding results: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing results: %w", err)
	}
	return nil
}
