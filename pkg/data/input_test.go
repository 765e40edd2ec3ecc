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
	"os"
	"path/filepath"
	"testing"

	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contagion/pkg/model"
)

func TestInput(t *testing.T) {
	suite := spec.New("Input suite", spec.Report(report.Terminal{}))
	suite("LoadTowns", testLoadTowns)
	suite("LoadMigrationMatrix", testLoadMigrationMatrix)
	suite("ApplyFloor", testApplyFloor)
	suite("BuildTowns", testBuildTowns)
	suite.Run(t)
}

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	return path
}

func testLoadTowns(t *testing.T, describe spec.G, it spec.S) {
	it("reads town rows under a header", func() {
		path := writeTempFile(t, "towns.csv",
			"name,population,longitude,latitude,infected\n"+
				"Alphaville,10000,14.42,50.09,10\n"+
				"Betaburg,5000,16.61,49.19,0\n")

		records, err := LoadTowns(path)
		require.NoError(t, err)

		require.Len(t, records, 2)
		assert.Equal(t, TownRecord{Name: "Alphaville", Population: 10000, Longitude: 14.42, Latitude: 50.09, Infected: 10}, records[0])
		assert.Equal(t, TownRecord{Name: "Betaburg", Population: 5000, Longitude: 16.61, Latitude: 49.19, Infected: 0}, records[1])
	})

	it("accepts the columns in any order", func() {
		path := writeTempFile(t, "towns.csv",
			"infected,latitude,name,longitude,population\n"+
				"3,50.09,Alphaville,14.42,10000\n")

		records, err := LoadTowns(path)
		require.NoError(t, err)

		require.Len(t, records, 1)
		assert.Equal(t, TownRecord{Name: "Alphaville", Population: 10000, Longitude: 14.42, Latitude: 50.09, Infected: 3}, records[0])
	})

	it("rejects a file with a missing column", func() {
		path := writeTempFile(t, "towns.csv",
			"name,population,longitude,latitude\n"+
				"Alphaville,10000,14.42,50.09\n")

		_, err := LoadTowns(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "infected")
	})

	it("rejects a negative population with its line number", func() {
		path := writeTempFile(t, "towns.csv",
			"name,population,longitude,latitude,infected\n"+
				"Alphaville,10000,14.42,50.09,0\n"+
				"Betaburg,-5,16.61,49.19,0\n")

		_, err := LoadTowns(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 3")
	})

	it("rejects a file with no town rows", func() {
		path := writeTempFile(t, "towns.csv", "name,population,longitude,latitude,infected\n")

		_, err := LoadTowns(path)
		require.Error(t, err)
	})
}

func testLoadMigrationMatrix(t *testing.T, describe spec.G, it spec.S) {
	it("reads a square matrix under a town header", func() {
		path := writeTempFile(t, "matrix.csv",
			"Alphaville,Betaburg\n"+
				"0,50\n"+
				"20,0\n")

		names, flows, err := LoadMigrationMatrix(path)
		require.NoError(t, err)

		assert.Equal(t, []string{"Alphaville", "Betaburg"}, names)
		assert.Equal(t, [][]float64{{0, 50}, {20, 0}}, flows)
	})

	it("rejects a matrix with too few rows", func() {
		path := writeTempFile(t, "matrix.csv",
			"Alphaville,Betaburg\n"+
				"0,50\n")

		_, _, err := LoadMigrationMatrix(path)
		assert.ErrorIs(t, err, model.ErrDataInconsistency)
	})

	it("rejects non-numeric flows", func() {
		path := writeTempFile(t, "matrix.csv",
			"Alphaville,Betaburg\n"+
				"0,many\n"+
				"20,0\n")

		_, _, err := LoadMigrationMatrix(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad flow")
	})
}

func testApplyFloor(t *testing.T, describe spec.G, it spec.S) {
	var (
		records []TownRecord
		names   []string
		flows   [][]float64
	)

	it.Before(func() {
		records = []TownRecord{
			{Name: "Alphaville", Population: 50000},
			{Name: "Betaburg", Population: 800},
			{Name: "Gammagrad", Population: 30000},
		}
		names = []string{"Alphaville", "Betaburg", "Gammagrad"}
		flows = [][]float64{
			{0, 1, 2},
			{3, 0, 4},
			{5, 6, 0},
		}
	})

	it("drops towns at or below the floor and masks the matrix both ways", func() {
		keptRecords, keptNames, keptFlows, err := ApplyFloor(records, names, flows, 800)
		require.NoError(t, err)

		assert.Equal(t, []string{"Alphaville", "Gammagrad"}, keptNames)
		require.Len(t, keptRecords, 2)
		assert.Equal(t, "Alphaville", keptRecords[0].Name)
		assert.Equal(t, "Gammagrad", keptRecords[1].Name)
		assert.Equal(t, [][]float64{{0, 2}, {5, 0}}, keptFlows)
	})

	it("keeps everything when the floor is zero", func() {
		keptRecords, keptNames, keptFlows, err := ApplyFloor(records, names, flows, 0)
		require.NoError(t, err)

		assert.Len(t, keptRecords, 3)
		assert.Equal(t, names, keptNames)
		assert.Equal(t, flows, keptFlows)
	})

	it("fails when no town survives", func() {
		_, _, _, err := ApplyFloor(records, names, flows, 100000)
		assert.ErrorIs(t, err, ErrPopulationBelowFloor)
	})

	it("fails on duplicate town records", func() {
		records[2].Name = "Alphaville"
		names[2] = "Alphaville"

		_, _, _, err := ApplyFloor(records, names, flows, 0)
		assert.ErrorIs(t, err, model.ErrDataInconsistency)
	})

	it("fails when the matrix names a town with no record", func() {
		names[1] = "Deltadorf"

		_, _, _, err := ApplyFloor(records, names, flows, 0)
		assert.ErrorIs(t, err, model.ErrDataInconsistency)
	})

	it("fails when the inputs disagree on the town count", func() {
		_, _, _, err := ApplyFloor(records[:2], names, flows, 0)
		assert.ErrorIs(t, err, model.ErrDataInconsistency)
	})
}

func testBuildTowns(t *testing.T, describe spec.G, it spec.S) {
	it("builds seeded partitions from records", func() {
		virus, err := model.NewVirusConfig("SARS-CoV2")
		require.NoError(t, err)

		contacts := model.ContactConfig{MeanPeriodicInteractions: 2, MeanStochasticInteractions: 5, PeriodicRecurrence: 1}

		towns := BuildTowns([]TownRecord{
			{Name: "Alphaville", Population: 1000, Longitude: 14.42, Latitude: 50.09, Infected: 10},
			{Name: "Betaburg", Population: 500, Longitude: 16.61, Latitude: 49.19},
		}, virus, contacts, 42)

		require.Len(t, towns, 2)
		assert.Equal(t, "Alphaville", towns[0].Name())
		assert.Equal(t, 1000, towns[0].Size())
		assert.Equal(t, 14.42, towns[0].Longitude())

		assert.Equal(t, 10, towns[0].Census().Infectious)
		assert.Equal(t, 0, towns[1].Census().Infectious)
		assert.Equal(t, 500, towns[1].Census().Susceptible)
	})

	it("derives distinct streams per town name", func() {
		virus, err := model.NewVirusConfig("SARS-CoV2")
		require.NoError(t, err)

		contacts := model.ContactConfig{MeanStochasticInteractions: 5}
		records := []TownRecord{
			{Name: "Alphaville", Population: 200, Infected: 5},
			{Name: "Betaburg", Population: 200, Infected: 5},
		}

		first := BuildTowns(records, virus, contacts, 42)
		second := BuildTowns(records, virus, contacts, 42)

		for i := range first {
			for id := 0; id < first[i].Size(); id++ {
				assert.Equal(t, first[i].StateOf(id), second[i].StateOf(id))
			}
		}
	})
}
