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

// ContactConfig holds the contact-rate parameters for one town's population.
type ContactConfig struct {
	MeanPeriodicInteractions   float64
	MeanStochasticInteractions float64

	// PeriodicRecurrence is the daily probability that an edge of the
	// periodic graph actually meets. The graph itself is fixed at build
	// time; this knob only thins it day to day. 1.0 means households meet
	// every single day.
	PeriodicRecurrence float64
}

// ContactPair is an unordered pair of pool indices proposing that two
// individuals met. Indices below the resident count refer to residents;
// indices at or above it refer to that day's visitors, in arrival order.
type ContactPair [2]int

// ContactGraph proposes who meets whom in one town. It is agnostic to
// disease state: it only generates pairs, and the town step decides which
// pairs can transmit.
//
// Periodic contacts live on a ring lattice built once at population build,
// approximating household and workplace cliques: the same neighbours recur
// day after day. Stochastic contacts are redrawn from scratch every day with
// no memory, pairing each present individual with uniformly random partners
// from that day's pool, visitors included.
type ContactGraph struct {
	rng       *rand.Rand
	residents int
	periodic  []ContactPair
	cfg       ContactConfig
}

func NewContactGraph(residents int, cfg ContactConfig, rng *rand.Rand) *ContactGraph {
	g := &ContactGraph{
		rng:       rng,
		residents: residents,
		cfg:       cfg,
	}

	g.buildPeriodic()

	return g
}

// buildPeriodic wires each resident to its nearest neighbours on a ring, a
// half-degree to each side, giving every individual a mean recurring degree
// of MeanPeriodicInteractions.
func (g *ContactGraph) buildPeriodic() {
	if g.residents < 2 {
		return
	}

	halfDegree := int(math.Round(g.cfg.MeanPeriodicInteractions / 2))
	if halfDegree > (g.residents-1)/2 {
		halfDegree = (g.residents - 1) / 2
	}

	g.periodic = make([]ContactPair, 0, g.residents*halfDegree)
	for i := 0; i < g.residents; i++ {
		for offset := 1; offset <= halfDegree; offset++ {
			j := (i + offset) % g.residents
			g.periodic = append(g.periodic, ContactPair{i, j})
		}
	}
}

// PeriodicDegree reports the mean degree of the fixed periodic graph.
func (g *ContactGraph) PeriodicDegree() float64 {
	if g.residents == 0 {
		return 0
	}

	return float64(2*len(g.periodic)) / float64(g.residents)
}

// Pairs generates one day's proposed contacts. present flags which
// residents are physically in town that day (travelers are flagged false);
// poolSize extends the index space past the residents to cover visitors,
// who join the stochastic pool exactly as residents do but have no edges in
// the periodic graph.
func (g *ContactGraph) Pairs(day int, present []bool, poolSize int) []ContactPair {
	pairs := make([]ContactPair, 0, len(g.periodic)+poolSize)

	for _, pair := range g.periodic {
		if !present[pair[0]] || !present[pair[1]] {
			continue
		}

		if g.cfg.PeriodicRecurrence < 1 && g.rng.Float64() >= g.cfg.PeriodicRecurrence {
			continue
		}

		pairs = append(pairs, pair)
	}

	pool := make([]int, 0, poolSize)
	for i := 0; i < g.residents; i++ {
		if present[i] {
			pool = append(pool, i)
		}
	}
	for i := g.residents; i < poolSize; i++ {
		pool = append(pool, i)
	}

	if len(pool) < 2 {
		return pairs
	}

	for _, idx := range pool {
		meetings := poisson(g.rng, g.cfg.MeanStochasticInteractions)
		for m := 0; m < meetings; m++ {
			partner := pool[g.rng.Intn(len(pool))]
			if partner == idx {
				continue
			}

			pairs = append(pairs, ContactPair{idx, partner})
		}
	}

	return pairs
}
