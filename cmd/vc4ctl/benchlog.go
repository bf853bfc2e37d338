//go:build linux

package main

import (
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// BenchResult captures one benchmark variant.
type BenchResult struct {
	Name      string        `json:"name"`
	Bytes     int64         `json:"bytes"`
	Duration  time.Duration `json:"duration"`
	MBPerSec  float64       `json:"mb_per_sec"`
	Verified  bool          `json:"verified"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// BenchSession groups the results of one bench invocation under a unique
// ID so reports from repeated runs can be told apart.
type BenchSession struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Started time.Time     `json:"started"`
	Results []BenchResult `json:"results"`
}

func newBenchSession(name string) *BenchSession {
	return &BenchSession{
		ID:      uuid.NewString(),
		Name:    name,
		Started: time.Now(),
	}
}

func (s *BenchSession) record(r BenchResult) {
	s.Results = append(s.Results, r)
}

// write saves the session as indented JSON.
func (s *BenchSession) write(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func makeResult(name string, size uint32, iterations int, elapsed time.Duration) BenchResult {
	total := int64(size) * int64(iterations)
	mbs := 0.0
	if elapsed > 0 {
		mbs = float64(total) / elapsed.Seconds() / (1 << 20)
	}
	return BenchResult{
		Name:      name,
		Bytes:     total,
		Duration:  elapsed,
		MBPerSec:  mbs,
		Timestamp: time.Now(),
	}
}

func failedResult(name string, err error) BenchResult {
	return BenchResult{
		Name:      name,
		Error:     err.Error(),
		Timestamp: time.Now(),
	}
}
