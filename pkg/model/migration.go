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
	"errors"
	"fmt"
	"math/rand"
)

// ErrDataInconsistency flags disagreement between the migration matrix and
// the population data: a town named in one but not the other, or an expected
// outflow a town cannot physically supply.
var ErrDataInconsistency = errors.New("migration matrix inconsistent with population data")

// Matrix is the origin-destination table of expected daily traveler counts
// between every pair of towns. It is built once before the run and read-only
// thereafter; all partitions share it.
type Matrix struct {
	names []string
	index map[string]int
	flows [][]float64
}

func NewMatrix(names []string, flows [][]float64) (*Matrix, error) {
	if len(flows) != len(names) {
		return nil, fmt.Errorf("%w: %d towns but %d matrix rows", ErrDataInconsistency, len(names), len(flows))
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate town %q", ErrDataInconsistency, name)
		}
		index[name] = i
	}

	for i, row := range flows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("%w: row %q has %d columns, want %d", ErrDataInconsistency, names[i], len(row), len(names))
		}

		for j, flow := range row {
			if flow < 0 {
				return nil, fmt.Errorf("%w: negative flow %f from %q to %q", ErrDataInconsistency, flow, names[i], names[j])
			}
		}
	}

	return &Matrix{names: names, index: index, flows: flows}, nil
}

// Names returns the towns covered by the matrix, in row order.
func (m *Matrix) Names() []string {
	return m.names
}

// Flow returns the expected daily traveler count from origin to destination.
func (m *Matrix) Flow(origin, destination string) float64 {
	i, ok := m.index[origin]
	if !ok {
		return 0
	}

	j, ok := m.index[destination]
	if !ok {
		return 0
	}

	return m.flows[i][j]
}

// OutFlow sums a town's expected daily outbound travelers, the diagonal
// excluded.
func (m *Matrix) OutFlow(origin string) float64 {
	i, ok := m.index[origin]
	if !ok {
		return 0
	}

	total := 0.0
	for j, flow := range m.flows[i] {
		if j != i {
			total += flow
		}
	}

	return total
}

// ValidateAgainst checks the matrix against the loaded populations: both
// must name exactly the same towns, and no town's expected outflow may
// exceed its population.
func (m *Matrix) ValidateAgainst(populations map[string]int) error {
	for _, name := range m.names {
		population, ok := populations[name]
		if !ok {
			return fmt.Errorf("%w: town %q has migration flows but no population record", ErrDataInconsistency, name)
		}

		if outflow := m.OutFlow(name); outflow > float64(population) {
			return fmt.Errorf("%w: town %q expects %f daily travelers out of a population of %d", ErrDataInconsistency, name, outflow, population)
		}
	}

	for name := range populations {
		if _, ok := m.index[name]; !ok {
			return fmt.Errorf("%w: town %q has a population record but no migration flows", ErrDataInconsistency, name)
		}
	}

	return nil
}

// TravelPlan is one day's complete traveler assignment, computed before any
// town steps. Pre-assigning travelers is what makes town steps independent
// units of parallel work: no step ever reads another partition's live state.
type TravelPlan struct {
	away    map[string]map[int]bool
	inbound map[string][]Visitor
}

// Away reports which residents of a town are traveling today and must be
// excluded from its local contact pool.
func (tp *TravelPlan) Away(town string) map[int]bool {
	return tp.away[town]
}

// Inbound reports today's visitors to a town, in assignment order.
func (tp *TravelPlan) Inbound(town string) []Visitor {
	return tp.inbound[town]
}

// AwayCount reports how many residents of a town are traveling today.
func (tp *TravelPlan) AwayCount(town string) int {
	return len(tp.away[town])
}

// MigrationPlanner samples each day's travelers from the OD matrix. It owns
// its own random stream, separate from every town's, and runs serially
// before the parallel phase of the day.
type MigrationPlanner struct {
	matrix *Matrix
	rng    *rand.Rand
}

func NewMigrationPlanner(matrix *Matrix, rng *rand.Rand) *MigrationPlanner {
	return &MigrationPlanner{matrix: matrix, rng: rng}
}

// Plan assigns travelers for one day. For each ordered town pair with a
// nonzero flow it draws a Poisson count of travelers and picks them
// uniformly without replacement from the origin's residents not already
// assigned elsewhere, clamping to whoever remains. Towns with zero
// population are skipped. Visitors are snapshotted at assignment time, so a
// host town sees each traveler's start-of-day state.
func (mp *MigrationPlanner) Plan(day int, towns map[string]*Town) (*TravelPlan, error) {
	plan := &TravelPlan{
		away:    make(map[string]map[int]bool, len(mp.matrix.names)),
		inbound: make(map[string][]Visitor, len(mp.matrix.names)),
	}

	for _, origin := range mp.matrix.names {
		town, ok := towns[origin]
		if !ok {
			return nil, fmt.Errorf("%w: matrix names town %q which has no partition", ErrDataInconsistency, origin)
		}

		if town.Size() == 0 {
			continue
		}

		// One shuffled order per origin per day; successive destinations
		// consume successive slots, guaranteeing no resident travels twice.
		order := mp.rng.Perm(town.Size())
		cursor := 0

		for _, destination := range mp.matrix.names {
			if destination == origin {
				continue
			}

			flow := mp.matrix.Flow(origin, destination)
			if flow <= 0 {
				continue
			}

			count := poisson(mp.rng, flow)
			if remaining := town.Size() - cursor; count > remaining {
				count = remaining
			}
			if count == 0 {
				continue
			}

			for k := 0; k < count; k++ {
				id := order[cursor]
				cursor++

				if plan.away[origin] == nil {
					plan.away[origin] = make(map[int]bool)
				}
				plan.away[origin][id] = true
				plan.inbound[destination] = append(plan.inbound[destination], town.VisitorView(id))
			}
		}
	}

	return plan, nil
}
