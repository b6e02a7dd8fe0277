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

// Package noise contains methods to generate and add noise to teacher votes.
package noise

import (
	log "github.com/golang/glog"
)

// Kind is an enum type. Its values are the supported noise distribution types
// for the vote-release and thresholding mechanisms.
type Kind int

// Noise distributions used by the accountant.
const (
	GaussianNoise Kind = iota
	Unrecognised
)

// ToNoise converts a Kind into a Noise instance.
func ToNoise(k Kind) Noise {
	switch k {
	case GaussianNoise:
		return Gaussian()
	case Unrecognised:
		log.Warningf("ToNoise: Unrecognised noise specified, returning nil")
	default:
		log.Warningf("ToNoise: unknown kind (%v) specified, returning nil", k)
	}
	return nil
}

// ToKind converts a Noise instance into a Kind.
func ToKind(n Noise) Kind {
	switch n {
	case Gaussian():
		return GaussianNoise
	case nil:
		log.Warningf("ToKind: nil noise specified, returning Unrecognised")
	default:
		log.Warningf("ToKind: unknown noise (%v) specified, returning Unrecognised", n)
	}
	return Unrecognised
}

// Noise is a perturbation primitive for vote vectors and scalar gate
// statistics. The accountant charges privacy cost under the assumption that
// every sample is zero-mean Gaussian with the given standard deviation and
// independent of all other samples; implementations must uphold that, except
// for deterministic test stubs.
type Noise interface {
	// Sample returns a single draw with the given mean and standard deviation.
	Sample(mean, sigma float64) float64
	// AddToVector returns v plus an independent zero-mean draw per entry.
	// The input slice is not modified.
	AddToVector(v []float64, sigma float64) []float64
}
