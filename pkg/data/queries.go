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

// language=sql
var TownSeriesQuery = `
select
    towns.name
  , town_days.day
  , town_days.susceptible
  , town_days.exposed
  , town_days.infectious
  , town_days.hospitalized
  , town_days.recovered
  , town_days.new_cases
from town_days
join towns on towns.id = town_days.town_id
where town_days.simulation_run_id = ?
order by towns.name, town_days.day
;`

// language=sql
var NationalTotalsQuery = `
select
    day
  , sum(susceptible)
  , sum(exposed)
  , sum(infectious)
  , sum(hospitalized)
  , sum(recovered)
  , sum(new_cases)
from town_days
where simulation_run_id = ?
group by day
order by day
;`

// language=sql
var PeakInfectiousQuery = `
select
    towns.name
  , max(town_days.infectious + town_days.hospitalized)
from town_days
join towns on towns.id = town_days.town_id
where town_days.simulation_run_id = ?
group by towns.name
order by towns.name
;`
