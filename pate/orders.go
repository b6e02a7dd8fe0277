//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package pate

import "math"

// Orders returns the fixed grid of candidate Rényi orders used for all RDP
// bookkeeping of one accountant. The short grid covers integer orders 2 to 50
// with a 20-point logarithmic tail up to 1000; the full grid covers orders
// 2 to 100 in steps of 0.5 with a 100-point logarithmic tail up to 500.
//
// Both grids are strictly increasing; points that would collide after
// rounding or at the ramp/tail junction are skipped.
func Orders(shortList bool) []float64 {
	if shortList {
		return appendLogTail(linearRamp(2, 50, 1), 50, 1000, 20, true)
	}
	return appendLogTail(linearRamp(2, 100, 0.5), 100, 500, 100, false)
}

func linearRamp(lo, hi, step float64) []float64 {
	var grid []float64
	for o := lo; o <= hi; o += step {
		grid = append(grid, o)
	}
	return grid
}

func appendLogTail(grid []float64, lo, hi float64, num int, round bool) []float64 {
	logLo, logHi := math.Log10(lo), math.Log10(hi)
	for i := 0; i < num; i++ {
		o := math.Pow(10, logLo+float64(i)*(logHi-logLo)/float64(num-1))
		if round {
			o = math.Round(o)
		}
		if len(grid) > 0 && o <= grid[len(grid)-1] {
			continue
		}
		grid = append(grid, o)
	}
	return grid
}
