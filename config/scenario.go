package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// WorkerSpec is one entry of a scenario's worker registry: the
// placement identity it reports at registration (§3 PlacementId).
type WorkerSpec struct {
	PodID  int `yaml:"podId"`
	RackID int `yaml:"rackId"`
	HostID int `yaml:"hostId"`
}

// ClientFileSpec is one (fileName, scheduledTime) entry the client write
// engine consumes (§4.3). StopAfter, if non-zero, cancels the write at
// that point from ScheduledAt (§4.3 cancellation, no retries).
type ClientFileSpec struct {
	Name        string        `yaml:"name"`
	ScheduledAt time.Duration `yaml:"scheduledAt"`
	StopAfter   time.Duration `yaml:"stopAfter"`
}

// Scenario is a complete run: the options overlay, the workers to
// register, and the files one client schedules.
type Scenario struct {
	Options Options          `yaml:"options"`
	Workers []WorkerSpec     `yaml:"workers"`
	Files   []ClientFileSpec `yaml:"files"`
}

func LoadScenario(path string) (Scenario, error) {
	s := Scenario{Options: Defaults()}
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, err
	}
	return s, nil
}
