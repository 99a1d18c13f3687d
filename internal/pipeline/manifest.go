package pipeline

import (
	"encoding/json"
	"os"
)

// ManifestEntry records one job in the output manifest.
type ManifestEntry struct {
	Name             string `json:"name"`
	Success          bool   `json:"success"`
	Error            string `json:"error,omitempty"`
	Iterations       int    `json:"iterations"`
	VerticesMoved    int    `json:"vertices_moved"`
	VerticesSkipped  int    `json:"vertices_skipped"`
	Collisions       int    `json:"collisions"`
	UsedRootFallback bool   `json:"used_root_fallback,omitempty"`
	Image            string `json:"image,omitempty"`
}

// WriteManifest writes manifest.json for a finished run.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Name:             r.Name,
			Success:          r.Success,
			Error:            r.Error,
			Iterations:       r.FitReport.Iterations,
			VerticesMoved:    r.FitReport.VerticesMoved,
			VerticesSkipped:  r.FitReport.VerticesSkipped,
			Collisions:       r.Collisions,
			UsedRootFallback: r.UsedRootFallback,
			Image:            r.Image,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
