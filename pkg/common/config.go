/**
 * Copyright 2022 The TideKV Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package common

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// CounterConfig defines the tunables of a sharded counter instance.
// Only the subspace is required at construction time; everything here
// controls contention behavior.
type CounterConfig struct {
	// SampleSize is the number of shards collapsed per coalescing pass.
	SampleSize int `yaml:"sampleSize"`

	// CoalesceProbability is the chance that a single Add triggers a
	// background coalescing pass.
	CoalesceProbability float64 `yaml:"coalesceProbability"`
}

// NewDefaultCounterConfig returns a counter configuration with the default tunables.
func NewDefaultCounterConfig() *CounterConfig {
	return &CounterConfig{
		SampleSize:          20,
		CoalesceProbability: 0.1,
	}
}

// Validate validates a CounterConfig and returns an error if it's invalid.
func (conf *CounterConfig) Validate() error {
	if conf.SampleSize <= 1 {
		return fmt.Errorf("invalid sample size %d provided in config", conf.SampleSize)
	}
	if conf.CoalesceProbability < 0 || conf.CoalesceProbability > 1 {
		return fmt.Errorf("invalid coalesce probability %f provided in config", conf.CoalesceProbability)
	}
	return nil
}

// LoadFromFile loads the config from the file. It assumes that config already has the defaults.
// In the case of an error, it leaves the config untouched.
func (conf *CounterConfig) LoadFromFile(path string) {
	log.Info(fmt.Sprintf("common::config::LoadFromFile; loading config from file %s", path))
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error(fmt.Sprintf("common::config::LoadFromFile; error reading config from file %s, error %s", path, err))
		return
	}
	fconf := CounterConfig{}
	err = yaml.Unmarshal(data, &fconf)
	if err != nil {
		log.Error(fmt.Sprintf("common::config::LoadFromFile; error unmarshalling config from file %s, error %s", path, err))
		return
	}

	log.WithFields(log.Fields{"config": fconf}).Debug("common::config::LoadFromFile; read contents from the file")

	if fconf.SampleSize != 0 {
		conf.SampleSize = fconf.SampleSize
	}
	if fconf.CoalesceProbability != 0 {
		conf.CoalesceProbability = fconf.CoalesceProbability
	}
}
