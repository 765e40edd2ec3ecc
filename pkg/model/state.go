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

import (
	"math"
	"math/rand"
)

// State is one individual's position in the disease progression. The
// progression is strictly ordered, Susceptible → Exposed → Infectious →
// Recovered, with hospitalization carried as a flag on Infectious rather
// than a fifth state: a hospitalized individual is still on the infectious
// clock but is isolated from contacts and reported separately.
type State uint8

const (
	Susceptible State = iota
	Exposed
	Infectious
	Recovered
)

func (s State) String() string {
	switch s {
	case Susceptible:
		return "Susceptible"
	case Exposed:
		return "Exposed"
	case Infectious:
		return "Infectious"
	case Recovered:
		return "Recovered"
	}

	return "Unknown"
}

// Individual is one member of a town's population. The zero value is a
// Susceptible individual. Records are created once at population build and
// mutated in place for the rest of the run; they are only ever touched by
// the worker that owns their home town partition, plus the scheduler's
// serial commit phase.
type Individual struct {
	state    State
	stateDay int

	// infectiousAt and recoverAt are the pre-drawn days of the next timed
	// transition; each is sampled exactly once, when the preceding
	// transition happens.
	infectiousAt int
	recoverAt    int

	hospitalized          bool
	hospitalizationRolled bool
}

func (p *Individual) State() State {
	return p.state
}

func (p *Individual) Hospitalized() bool {
	return p.hospitalized
}

// Contagious reports whether this individual generates outward contacts.
// Hospitalized individuals are isolated and do not.
func (p *Individual) Contagious() bool {
	return p.state == Infectious && !p.hospitalized
}

// Expose moves a Susceptible individual to Exposed on the given day and
// draws the day on which they will turn Infectious. It reports whether the
// exposure took hold: repeated successful contact trials within one day, or
// trials against a non-Susceptible individual, change nothing.
func Expose(rng *rand.Rand, virus VirusConfig, p *Individual, day int) bool {
	if p.state != Susceptible {
		return false
	}

	p.state = Exposed
	p.stateDay = day
	p.infectiousAt = day + onsetDelay(rng, virus.InfectiousStart)

	return true
}

// SeedInfectious forces an individual straight to Infectious, used for the
// day-zero seed cases supplied with the population data.
func SeedInfectious(rng *rand.Rand, virus VirusConfig, p *Individual, day int) {
	p.state = Infectious
	p.stateDay = day
	p.recoverAt = day + boundedNormal(rng, virus.InfectiousDaysMean, virus.InfectiousDaysStd)
}

// Advance applies whichever timed transition is due for one individual on
// the given day. Transmission is resolved separately (and earlier within a
// day) by the town step, so a fresh exposure never advances on the day it
// occurred. Recovered is terminal.
func Advance(rng *rand.Rand, virus VirusConfig, p *Individual, day int) {
	switch p.state {
	case Exposed:
		if day >= p.infectiousAt {
			p.state = Infectious
			p.stateDay = day
			p.recoverAt = day + boundedNormal(rng, virus.InfectiousDaysMean, virus.InfectiousDaysStd)
		}

	case Infectious:
		if day >= p.recoverAt {
			p.state = Recovered
			p.stateDay = day
			p.hospitalized = false
			return
		}

		if !p.hospitalizationRolled && day >= p.stateDay+int(math.Round(virus.HospitalizationStart)) {
			p.hospitalizationRolled = true
			p.hospitalized = rng.Float64() < virus.HospitalizationPercentage
		}
	}
}

// Census is the per-town aggregate of disease states for one day. The five
// state counts are disjoint, so their sum equals the town's fixed
// population on every day of the run.
type Census struct {
	Susceptible  int
	Exposed      int
	Infectious   int
	Hospitalized int
	Recovered    int
	NewCases     int
}

// Total sums the disjoint state counts.
func (c Census) Total() int {
	return c.Susceptible + c.Exposed + c.Infectious + c.Hospitalized + c.Recovered
}
