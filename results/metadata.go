package results

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/weiihann/shufbench/config"
)

// Metadata describes one invocation and is written next to its CSV file.
type Metadata struct {
	RunID      string        `json:"run_id"`
	Output     string        `json:"output"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Rows       int           `json:"rows"`
	Seed       uint64        `json:"seed"`
	Error      string        `json:"error,omitempty"`
	Config     config.Config `json:"config"`
	Host       Host          `json:"host"`
}

// Host records the machine facts that influence timings.
type Host struct {
	GoVersion string `json:"go_version"`
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
	NumCPU    int    `json:"num_cpu"`
}

// NewMetadata starts a Metadata record with a fresh run ID.
func NewMetadata(cfg config.Config, output string, seed uint64, started time.Time) Metadata {
	return Metadata{
		RunID:     uuid.NewString(),
		Output:    output,
		StartedAt: started,
		Seed:      seed,
		Config:    cfg,
		Host: Host{
			GoVersion: runtime.Version(),
			GOOS:      runtime.GOOS,
			GOARCH:    runtime.GOARCH,
			NumCPU:    runtime.NumCPU(),
		},
	}
}

// WriteMetadata writes m as indented JSON to path.
func WriteMetadata(path string, m Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", path, err)
	}

	return nil
}
