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
	"hash/fnv"
	"math"
	"math/rand"
)

// NewStream derives an independent random stream from a base seed and a
// label. Each town partition and the migration planner own exactly one
// stream, so parallel workers never share mutable random state and a fixed
// base seed reproduces the whole run regardless of town ordering or worker
// scheduling.
func NewStream(seed int64, label string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(label))

	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

// poisson draws from a Poisson distribution with the given mean, using
// Knuth's product method. Means in this simulation are small (daily contact
// and traveler counts), where the method is both exact and fast.
func poisson(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}

	limit := math.Exp(-mean)
	product := rng.Float64()

	count := 0
	for product > limit {
		count++
		product *= rng.Float64()
	}

	return count
}

// boundedNormal draws a duration in days from Normal(mean, std), resampling
// a handful of times before clamping so that an unlucky tail draw can never
// produce a negative duration.
func boundedNormal(rng *rand.Rand, mean, std float64) int {
	draw := rng.NormFloat64()*std + mean
	for attempt := 0; draw < 0 && attempt < 10; attempt++ {
		draw = rng.NormFloat64()*std + mean
	}

	if draw < 0 {
		draw = 0
	}

	return int(math.Round(draw))
}

// onsetDelay draws the exposed-to-infectious latency. The draw is centered
// on the configured mean and never less than one day, so a fresh exposure
// cannot become contagious within the same day it occurred.
func onsetDelay(rng *rand.Rand, mean float64) int {
	delay := poisson(rng, mean)
	if delay < 1 {
		delay = 1
	}

	return delay
}
