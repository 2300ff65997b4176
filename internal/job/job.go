// Package job reads and writes optimizer jobs and results as JSON files,
// the exchange format between the engine and the surrounding application.
package job

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/craftplan/cutstock/internal/model"
)

// Load reads a Job from a JSON file.
func Load(path string) (model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Job{}, err
	}
	var j model.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return model.Job{}, fmt.Errorf("parse job %s: %w", path, err)
	}
	if j.Sheet.Width <= 0 || j.Sheet.Height <= 0 {
		return model.Job{}, fmt.Errorf("job %s: sheet dimensions must be positive", path)
	}
	return j, nil
}

// Save writes a Job to a JSON file, creating parent directories as needed.
func Save(path string, j model.Job) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SaveResult writes a PackResult to a JSON file for the preview/quotation
// layer to consume.
func SaveResult(path string, res model.PackResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
