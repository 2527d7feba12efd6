package preflight

import (
	"context"

	"stitchcast/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Record location", cfg.Capture.RecordLocation),
		CheckDirectoryAccess("Upload location", cfg.Upload.Location),
		CheckExecutable("Stitcher", cfg.Capture.StitcherLocation),
		CheckBackendSocket(cfg.Backend.Socket),
	}

	// Upload endpoint (when configured)
	if cfg.Upload.Endpoint != "" {
		results = append(results, CheckUploadEndpoint(ctx, cfg.Upload.Endpoint))
	}
	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
