/*
 * Copyright (C) 2019-Present Pivotal Software, Inc. All rights reserved.
 *
 * This program and the accompanying materials are made available under the terms
 * of the Apache License, Version 2.0 (the "License”); you may not use this file
 * except in compliance with the License. You may obtain a copy of the License at:
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software distributed
 * under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR
 * CONDITIONS OF ANY KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations under the License.
 */

package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"contagion/pkg/model"
)

// Scenario is the full configuration surface of one run. Virus parameters
// are pointers so that a scenario can override any subset of the named
// preset; nil means "use the preset's value". A transmission probability of
// zero is a legitimate override, not an absent one.
type Scenario struct {
	Virus string `yaml:"virus" json:"virus"`

	MinInhabitants int   `yaml:"min_inhabitants" json:"min_inhabitants"`
	SimulationDays int   `yaml:"simulation_days" json:"simulation_days"`
	NProcesses     int   `yaml:"n_processes" json:"n_processes"`
	Seed           int64 `yaml:"seed" json:"seed"`

	MeanPeriodicInteractions   float64 `yaml:"mean_periodic_interactions" json:"mean_periodic_interactions"`
	MeanStochasticInteractions float64 `yaml:"mean_stochastic_interactions" json:"mean_stochastic_interactions"`
	PeriodicRecurrence         float64 `yaml:"periodic_recurrence" json:"periodic_recurrence"`

	TransmissionProbability   *float64 `yaml:"transmission_probability" json:"transmission_probability"`
	InfectiousStart           *float64 `yaml:"infectious_start" json:"infectious_start"`
	InfectiousDaysMean        *float64 `yaml:"infectious_days_mean" json:"infectious_days_mean"`
	InfectiousDaysStd         *float64 `yaml:"infectious_days_std" json:"infectious_days_std"`
	HospitalizationStart      *float64 `yaml:"hospitalization_start" json:"hospitalization_start"`
	HospitalizationPercentage *float64 `yaml:"hospitalization_percentage" json:"hospitalization_percentage"`

	PopulationsFile     string `yaml:"populations_file" json:"populations_file"`
	MigrationMatrixFile string `yaml:"migration_matrix_file" json:"migration_matrix_file"`
	ResultsFile         string `yaml:"results_file" json:"results_file"`
}

// DefaultScenario matches the reference SARS-CoV2 configuration.
func DefaultScenario() Scenario {
	return Scenario{
		Virus:                      "SARS-CoV2",
		MinInhabitants:             20000,
		SimulationDays:             120,
		NProcesses:                 4,
		Seed:                       42,
		MeanPeriodicInteractions:   2,
		MeanStochasticInteractions: 5,
		PeriodicRecurrence:         1,
	}
}

// LoadScenario reads a scenario from a YAML file, on top of the defaults.
func LoadScenario(path string) (Scenario, error) {
	sc := DefaultScenario()

	raw, err := os.ReadFile(path)
	if err != nil {
		return sc, err
	}

	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return sc, fmt.Errorf("parsing %s: %w", path, err)
	}

	return sc, nil
}

// VirusConfig resolves the named preset with the scenario's overrides
// applied, validated.
func (sc Scenario) VirusConfig() (model.VirusConfig, error) {
	virus, err := model.NewVirusConfig(sc.Virus)
	if err != nil {
		return model.VirusConfig{}, err
	}

	if sc.TransmissionProbability != nil {
		virus.TransmissionProbability = *sc.TransmissionProbability
	}
	if sc.InfectiousStart != nil {
		virus.InfectiousStart = *sc.InfectiousStart
	}
	if sc.InfectiousDaysMean != nil {
		virus.InfectiousDaysMean = *sc.InfectiousDaysMean
	}
	if sc.InfectiousDaysStd != nil {
		virus.InfectiousDaysStd = *sc.InfectiousDaysStd
	}
	if sc.HospitalizationStart != nil {
		virus.HospitalizationStart = *sc.HospitalizationStart
	}
	if sc.HospitalizationPercentage != nil {
		virus.HospitalizationPercentage = *sc.HospitalizationPercentage
	}

	if err := virus.Validate(); err != nil {
		return model.VirusConfig{}, err
	}

	return virus, nil
}

// ContactConfig extracts the contact-rate parameters.
func (sc Scenario) ContactConfig() model.ContactConfig {
	return model.ContactConfig{
		MeanPeriodicInteractions:   sc.MeanPeriodicInteractions,
		MeanStochasticInteractions: sc.MeanStochasticInteractions,
		PeriodicRecurrence:         sc.PeriodicRecurrence,
	}
}
