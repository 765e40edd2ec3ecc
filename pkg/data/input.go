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
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"contagion/pkg/model"
)

// ErrPopulationBelowFloor flags a simulated population too small to be
// meaningful after the min_inhabitants filter.
var ErrPopulationBelowFloor = errors.New("total population below the min_inhabitants floor")

// TownRecord is one row of the population input: a town, its resident
// count, its coordinates, and how many residents are already infectious on
// day zero.
type TownRecord struct {
	Name       string  `json:"name" yaml:"name"`
	Population int     `json:"population" yaml:"population"`
	Longitude  float64 `json:"longitude" yaml:"longitude"`
	Latitude   float64 `json:"latitude" yaml:"latitude"`
	Infected   int     `json:"infected" yaml:"infected"`
}

// LoadTowns reads town records from a CSV file with a header row naming the
// columns name, population, longitude, latitude and infected, in any order.
func LoadTowns(path string) ([]TownRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s has no town rows", path)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[header] = i
	}

	for _, required := range []string{"name", "population", "longitude", "latitude", "infected"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%s is missing the %q column", path, required)
		}
	}

	records := make([]TownRecord, 0, len(rows)-1)
	for line, row := range rows[1:] {
		record := TownRecord{Name: row[columns["name"]]}

		record.Population, err = strconv.Atoi(row[columns["population"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad population: %w", path, line+2, err)
		}

		record.Longitude, err = strconv.ParseFloat(row[columns["longitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad longitude: %w", path, line+2, err)
		}

		record.Latitude, err = strconv.ParseFloat(row[columns["latitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad latitude: %w", path, line+2, err)
		}

		record.Infected, err = strconv.Atoi(row[columns["infected"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad infected count: %w", path, line+2, err)
		}

		if record.Population < 0 {
			return nil, fmt.Errorf("%s line %d: negative population", path, line+2)
		}

		records = append(records, record)
	}

	return records, nil
}

// LoadMigrationMatrix reads a square origin-destination matrix from a CSV
// file whose header row names the towns; row i holds the expected daily
// traveler counts from town i to every town in header order.
func LoadMigrationMatrix(path string) ([]string, [][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(rows) < 1 {
		return nil, nil, fmt.Errorf("%s is empty", path)
	}

	names := rows[0]
	if len(rows)-1 != len(names) {
		return nil, nil, fmt.Errorf("%w: %s names %d towns but has %d flow rows", model.ErrDataInconsistency, path, len(names), len(rows)-1)
	}

	flows := make([][]float64, 0, len(names))
	for line, row := range rows[1:] {
		if len(row) != len(names) {
			return nil, nil, fmt.Errorf("%w: %s line %d has %d columns, want %d", model.ErrDataInconsistency, path, line+2, len(row), len(names))
		}

		flowRow := make([]float64, len(row))
		for j, cell := range row {
			flowRow[j], err = strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s line %d: bad flow: %w", path, line+2, err)
			}
		}

		flows = append(flows, flowRow)
	}

	return names, flows, nil
}

// ApplyFloor drops towns at or below minInhabitants and masks the matching
// matrix rows and columns, keeping the two inputs aligned. Both inputs must
// name exactly the same towns. The surviving total population must still
// clear the floor.
func ApplyFloor(records []TownRecord, names []string, flows [][]float64, minInhabitants int) ([]TownRecord, []string, [][]float64, error) {
	byName := make(map[string]TownRecord, len(records))
	for _, record := range records {
		if _, dup := byName[record.Name]; dup {
			return nil, nil, nil, fmt.Errorf("%w: duplicate town record %q", model.ErrDataInconsistency, record.Name)
		}
		byName[record.Name] = record
	}

	if len(names) != len(records) {
		return nil, nil, nil, fmt.Errorf("%w: %d town records but %d matrix towns", model.ErrDataInconsistency, len(records), len(names))
	}

	keep := make([]int, 0, len(names))
	keptRecords := make([]TownRecord, 0, len(names))
	keptNames := make([]string, 0, len(names))
	total := 0

	for i, name := range names {
		record, ok := byName[name]
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: matrix names town %q which has no population record", model.ErrDataInconsistency, name)
		}

		if record.Population <= minInhabitants {
			continue
		}

		keep = append(keep, i)
		keptRecords = append(keptRecords, record)
		keptNames = append(keptNames, name)
		total += record.Population
	}

	if total < minInhabitants || len(keptRecords) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: %d inhabitants survive the filter, need more than %d", ErrPopulationBelowFloor, total, minInhabitants)
	}

	keptFlows := make([][]float64, len(keep))
	for r, i := range keep {
		keptFlows[r] = make([]float64, len(keep))
		for c, j := range keep {
			keptFlows[r][c] = flows[i][j]
		}
	}

	return keptRecords, keptNames, keptFlows, nil
}

// BuildTowns turns town records into live partitions, each with its own
// random stream derived from the base seed and the town's name, and seeds
// the day-zero infections.
func BuildTowns(records []TownRecord, virus model.VirusConfig, contacts model.ContactConfig, seed int64) []*model.Town {
	towns := make([]*model.Town, 0, len(records))

	for _, record := range records {
		town := model.NewTown(
			record.Name,
			record.Population,
			record.Longitude,
			record.Latitude,
			virus,
			contacts,
			model.NewStream(seed, record.Name),
		)

		if record.Infected > 0 {
			town.Infect(record.Infected)
		}

		towns = append(towns, town)
	}

	return towns
}
