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

package model

import "fmt"

// VirusConfig holds the disease parameters that drive every stochastic draw
// in the simulation. All durations are in whole simulated days.
type VirusConfig struct {
	Name                      string
	TransmissionProbability   float64
	InfectiousStart           float64
	InfectiousDaysMean        float64
	InfectiousDaysStd         float64
	HospitalizationStart      float64
	HospitalizationPercentage float64
}

var virusPresets = map[string]VirusConfig{
	"SARS-CoV2": {
		Name:                      "SARS-CoV2",
		TransmissionProbability:   0.02,
		InfectiousStart:           3,
		InfectiousDaysMean:        10,
		InfectiousDaysStd:         3,
		HospitalizationStart:      5,
		HospitalizationPercentage: 0.05,
	},
	"influenza": {
		Name:                      "influenza",
		TransmissionProbability:   0.012,
		InfectiousStart:           2,
		InfectiousDaysMean:        5,
		InfectiousDaysStd:         1.5,
		HospitalizationStart:      3,
		HospitalizationPercentage: 0.01,
	},
}

// NewVirusConfig looks up a named preset.
func NewVirusConfig(name string) (VirusConfig, error) {
	preset, ok := virusPresets[name]
	if !ok {
		return VirusConfig{}, fmt.Errorf("unknown virus type: %q", name)
	}

	return preset, nil
}

// Validate rejects parameter combinations that would make sampling
// meaningless rather than merely improbable.
func (vc VirusConfig) Validate() error {
	if vc.TransmissionProbability < 0 || vc.TransmissionProbability > 1 {
		return fmt.Errorf("transmission probability %f is outside [0, 1]", vc.TransmissionProbability)
	}

	if vc.HospitalizationPercentage < 0 || vc.HospitalizationPercentage > 1 {
		return fmt.Errorf("hospitalization percentage %f is outside [0, 1]", vc.HospitalizationPercentage)
	}

	if vc.InfectiousStart < 0 {
		return fmt.Errorf("infectious start %f is negative", vc.InfectiousStart)
	}

	if vc.InfectiousDaysMean < 0 {
		return fmt.Errorf("infectious days mean %f is negative", vc.InfectiousDaysMean)
	}

	if vc.InfectiousDaysStd < 0 {
		return fmt.Errorf("infectious days standard deviation %f is negative", vc.InfectiousDaysStd)
	}

	if vc.HospitalizationStart < 0 {
		return fmt.Errorf("hospitalization start %f is negative", vc.HospitalizationStart)
	}

	return nil
}
