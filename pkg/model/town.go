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
	"fmt"
	"math/rand"
)

// Visitor is the read-only snapshot of a traveler taken by the migration
// planner before any town steps. The host town resolves the visitor's
// contacts against this snapshot; the individual's actual record stays with
// the home town partition.
type Visitor struct {
	Home        string
	ID          int
	Contagious  bool
	Susceptible bool
}

// Exposure is a transmission verdict for a visitor, reported back by the
// host town so the scheduler can commit it to the home town's record after
// the day barrier.
type Exposure struct {
	Home string
	ID   int
}

// Town is one town partition: the individuals resident there, their fixed
// periodic contact graph, and the random stream that drives every draw for
// this partition. During a day's step the partition is exclusively owned by
// one worker; the scheduler touches it only between barriers.
type Town struct {
	name      string
	longitude float64
	latitude  float64

	people   []Individual
	graph    *ContactGraph
	virus    VirusConfig
	rng      *rand.Rand
	newCases int
}

func NewTown(name string, population int, longitude, latitude float64, virus VirusConfig, contacts ContactConfig, rng *rand.Rand) *Town {
	return &Town{
		name:      name,
		longitude: longitude,
		latitude:  latitude,
		people:    make([]Individual, population),
		graph:     NewContactGraph(population, contacts, rng),
		virus:     virus,
		rng:       rng,
	}
}

func (t *Town) Name() string {
	return t.name
}

func (t *Town) Size() int {
	return len(t.people)
}

func (t *Town) Longitude() float64 {
	return t.longitude
}

func (t *Town) Latitude() float64 {
	return t.latitude
}

// StateOf reports the disease state of one resident.
func (t *Town) StateOf(id int) State {
	return t.people[id].state
}

// Infect seeds n uniformly chosen residents as Infectious at day zero.
func (t *Town) Infect(n int) {
	if n > len(t.people) {
		n = len(t.people)
	}

	for _, idx := range t.rng.Perm(len(t.people))[:n] {
		SeedInfectious(t.rng, t.virus, &t.people[idx], 0)
	}
}

// VisitorView snapshots one resident for a day trip to another town.
func (t *Town) VisitorView(id int) Visitor {
	p := &t.people[id]

	return Visitor{
		Home:        t.name,
		ID:          id,
		Contagious:  p.Contagious(),
		Susceptible: p.state == Susceptible,
	}
}

// Step advances the partition by one day. away flags residents who travel
// today and therefore drop out of the local contact pool; visitors are
// today's inbound travelers, merged into the stochastic pool.
//
// Within the day, all transmission contacts are resolved against states
// frozen at the start of the day before any timed transition advances, so a
// fresh exposure can neither transmit nor turn Infectious on the day it
// happened. Timed advances apply to every resident, away or not: travelers'
// clocks keep ticking on the home record.
//
// Exposure verdicts for visitors are returned, not applied; their records
// belong to other partitions.
func (t *Town) Step(day int, away map[int]bool, visitors []Visitor) ([]Exposure, error) {
	t.newCases = 0

	residents := len(t.people)
	present := make([]bool, residents)
	for i := range present {
		present[i] = true
	}

	for id := range away {
		if id < 0 || id >= residents {
			return nil, fmt.Errorf("town %s: traveler id %d out of range [0, %d)", t.name, id, residents)
		}
		present[id] = false
	}

	poolSize := residents + len(visitors)
	pairs := t.graph.Pairs(day, present, poolSize)

	// States frozen at start of day. Mutating a record during transmission
	// resolution must not change who counts as contagious today.
	contagious := make([]bool, poolSize)
	susceptible := make([]bool, poolSize)
	for i := range t.people {
		contagious[i] = t.people[i].Contagious()
		susceptible[i] = t.people[i].state == Susceptible
	}
	for v, visitor := range visitors {
		contagious[residents+v] = visitor.Contagious
		susceptible[residents+v] = visitor.Susceptible
	}

	exposures := make([]Exposure, 0)
	visitorExposed := make([]bool, len(visitors))

	for _, pair := range pairs {
		src, dst := pair[0], pair[1]
		if contagious[src] && susceptible[dst] {
			exposures = t.tryTransmit(dst, day, visitors, visitorExposed, exposures)
		} else if contagious[dst] && susceptible[src] {
			exposures = t.tryTransmit(src, day, visitors, visitorExposed, exposures)
		}
	}

	for i := range t.people {
		Advance(t.rng, t.virus, &t.people[i], day)
	}

	return exposures, nil
}

// tryTransmit runs one independent Bernoulli trial against the target of a
// contact with a contagious individual.
func (t *Town) tryTransmit(target, day int, visitors []Visitor, visitorExposed []bool, exposures []Exposure) []Exposure {
	if t.rng.Float64() >= t.virus.TransmissionProbability {
		return exposures
	}

	residents := len(t.people)
	if target < residents {
		if Expose(t.rng, t.virus, &t.people[target], day) {
			t.newCases++
		}
		return exposures
	}

	v := target - residents
	if !visitorExposed[v] {
		visitorExposed[v] = true
		exposures = append(exposures, Exposure{Home: visitors[v].Home, ID: visitors[v].ID})
	}

	return exposures
}

// CommitExposure applies a transmission verdict routed back from another
// town. It reports whether the record actually changed, guarding against a
// double update.
func (t *Town) CommitExposure(id, day int) bool {
	if id < 0 || id >= len(t.people) {
		return false
	}

	if Expose(t.rng, t.virus, &t.people[id], day) {
		t.newCases++
		return true
	}

	return false
}

// Census tallies the partition's disjoint state counts plus the number of
// exposures committed since the start of the current day.
func (t *Town) Census() Census {
	c := Census{NewCases: t.newCases}

	for i := range t.people {
		switch t.people[i].state {
		case Susceptible:
			c.Susceptible++
		case Exposed:
			c.Exposed++
		case Infectious:
			if t.people[i].hospitalized {
				c.Hospitalized++
			} else {
				c.Infectious++
			}
		case Recovered:
			c.Recovered++
		}
	}

	return c
}
