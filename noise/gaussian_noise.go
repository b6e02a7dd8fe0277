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

package noise

import (
	log "github.com/golang/glog"

	"github.com/Sophie-Normand/pate-go/rand"
)

type gaussian struct{}

// Gaussian returns a Noise instance that adds zero-mean Gaussian noise drawn
// from a cryptographically secure source.
func Gaussian() Noise {
	return gaussian{}
}

// Sample returns a single Gaussian draw with the given mean and standard deviation.
func (gaussian) Sample(mean, sigma float64) float64 {
	if sigma < 0 {
		log.Fatalf("gaussian.Sample(mean %f, sigma %f): sigma must be nonnegative", mean, sigma)
	}
	return rand.NormalSigma(mean, sigma)
}

// AddToVector returns v plus an independent zero-mean Gaussian draw per entry.
func (gaussian) AddToVector(v []float64, sigma float64) []float64 {
	if sigma < 0 {
		log.Fatalf("gaussian.AddToVector(sigma %f): sigma must be nonnegative", sigma)
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x + rand.NormalSigma(0, sigma)
	}
	return out
}
