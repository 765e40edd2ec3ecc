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

package simulator

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contagion/pkg/model"
)

// Config fixes the run-wide scheduling parameters.
type Config struct {
	Days    int
	Workers int
	Seed    int64
}

// Scheduler owns the full population and the day loop. Each day runs in
// three phases: the migration planner pre-assigns every cross-town traveler
// (serial), every town partition steps one day (parallel, bounded by
// Workers), and traveler exposure verdicts are committed back to home
// records (serial). The errgroup wait between phases is the day barrier: no
// town ever advances to day d+1 before every town has finished day d.
type Scheduler struct {
	towns   []*model.Town
	byName  map[string]*model.Town
	planner *model.MigrationPlanner
	cfg     Config
	logger  *zap.SugaredLogger
}

func NewScheduler(towns []*model.Town, matrix *model.Matrix, cfg Config, logger *zap.SugaredLogger) (*Scheduler, error) {
	if cfg.Days < 1 {
		return nil, fmt.Errorf("cannot simulate %d days", cfg.Days)
	}

	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}

	byName := make(map[string]*model.Town, len(towns))
	populations := make(map[string]int, len(towns))
	for _, town := range towns {
		if _, dup := byName[town.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate town partition %q", model.ErrDataInconsistency, town.Name())
		}
		byName[town.Name()] = town
		populations[town.Name()] = town.Size()
	}

	if err := matrix.ValidateAgainst(populations); err != nil {
		return nil, err
	}

	return &Scheduler{
		towns:   towns,
		byName:  byName,
		planner: model.NewMigrationPlanner(matrix, model.NewStream(cfg.Seed, "migration")),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Run executes the day loop and returns the full Day Snapshot sequence. A
// failure in any town's step aborts the whole run with no partial-day
// commit, since a half-stepped day would break population conservation.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	result := newResult(s.towns)

	for day := 0; day < s.cfg.Days; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		plan, err := s.planner.Plan(day, s.byName)
		if err != nil {
			return nil, err
		}

		exposures := make([][]model.Exposure, len(s.towns))

		g, stepCtx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Workers)
		for i, town := range s.towns {
			i, town := i, town
			g.Go(func() error {
				if err := stepCtx.Err(); err != nil {
					return err
				}

				verdicts, err := town.Step(day, plan.Away(town.Name()), plan.Inbound(town.Name()))
				if err != nil {
					return fmt.Errorf("town %q failed on day %d: %w", town.Name(), day, err)
				}

				exposures[i] = verdicts
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		// Commit phase: route visitor exposures back to home records. Fixed
		// iteration order keeps the run reproducible.
		for _, verdicts := range exposures {
			for _, exposure := range verdicts {
				home, ok := s.byName[exposure.Home]
				if !ok {
					return nil, fmt.Errorf("%w: exposure routed to unknown town %q", model.ErrDataInconsistency, exposure.Home)
				}

				home.CommitExposure(exposure.ID, day)
			}
		}

		for i, town := range s.towns {
			census := town.Census()
			if census.Total() != town.Size() {
				return nil, fmt.Errorf("population not conserved in town %q on day %d: counted %d of %d", town.Name(), day, census.Total(), town.Size())
			}

			result.Towns[i].append(day, census)
		}

		if day%10 == 0 {
			s.logger.Infow("simulating", "day", day)
		}
	}

	return result, nil
}
