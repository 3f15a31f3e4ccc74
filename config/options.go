// Package config holds the enumerated options of §6.3: the fixed knobs
// every actor package reads instead of hardcoding a constant, loaded from
// a YAML scenario file.
/*
 * Copyright (c) 2018-2023.
 */
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Options is the options record of §6.3. Zero-value construction is never
// used directly, callers get Defaults() and overlay a scenario file.
type Options struct {
	FatTreeK              int    `yaml:"fatTreeK"`
	PacketSize            int    `yaml:"packetSize"`
	MaxPipelineLen        int    `yaml:"maxPipelineLen"`
	DefaultBlockSize      int    `yaml:"defaultBlockSize"`
	CoordinatorWorkerAddr string `yaml:"coordinatorWorkerAddr"`
	CoordinatorClientAddr string `yaml:"coordinatorClientAddr"`
	WorkerPipelinePort    int    `yaml:"workerPipelinePort"`
	MaxBlocksPerWorker    int    `yaml:"maxBlocksPerWorker"`
	MaxFilesPerClient     int    `yaml:"maxFilesPerClient"`
	MaxBlocksPerClient    int    `yaml:"maxBlocksPerClient"`
	MaxWorkerRegistry     int    `yaml:"maxWorkerRegistry"`
}

// Defaults returns the §6.3 default values.
func Defaults() Options {
	return Options{
		FatTreeK:              4,
		PacketSize:            1000,
		MaxPipelineLen:        3,
		DefaultBlockSize:      64000,
		CoordinatorWorkerAddr: "coordinator:8000",
		CoordinatorClientAddr: "coordinator:9000",
		WorkerPipelinePort:    9002,
		MaxBlocksPerWorker:    16,
		MaxFilesPerClient:     10,
		MaxBlocksPerClient:    16,
		MaxWorkerRegistry:     1024,
	}
}

// Load overlays a YAML scenario file onto the §6.3 defaults. A missing
// file is not an error: the defaults stand on their own.
func Load(path string) (Options, error) {
	opts := Defaults()
	if path == "" {
		return opts, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, err
	}
	if err := yaml.Unmarshal(b, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}
