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

// Package checks contains parameter checks for the PATE accountant.
package checks

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
)

const (
	deltaName     = "Delta"
	sigmaName     = "Sigma"
	gammaName     = "Gamma"
	thresholdName = "Threshold"
)

func verifyName(defaultName string, nameSlice []string) (string, error) {
	var name string
	switch len(nameSlice) {
	case 0:
		name = defaultName
	case 1:
		name = nameSlice[0]
	default:
		return "", fmt.Errorf("This should never happen. There should be 0 or 1 'name' parameter, got %d", len(nameSlice))
	}
	return name, nil
}

// CheckDeltaStrict returns an error if δ is nonpositive or greater than or equal to 1.
func CheckDeltaStrict(delta float64, name ...string) error {
	delName, err := verifyName(deltaName, name)
	if err != nil {
		return err
	}
	if math.IsNaN(delta) {
		return fmt.Errorf("%s is %e, cannot be NaN", delName, delta)
	}
	if delta <= 0 {
		return fmt.Errorf("%s is %e, must be strictly positive", delName, delta)
	}
	if delta >= 1 {
		return fmt.Errorf("%s is %e, must be strictly less than 1", delName, delta)
	}
	return nil
}

// CheckSigma returns an error if σ is nonpositive or +∞.
func CheckSigma(sigma float64, name ...string) error {
	sigName, err := verifyName(sigmaName, name)
	if err != nil {
		return err
	}
	if sigma <= 0 || math.IsInf(sigma, 0) || math.IsNaN(sigma) {
		return fmt.Errorf("%s is %f, must be strictly positive and finite", sigName, sigma)
	}
	return nil
}

// CheckTeacherCount returns an error if teacherCount is nonpositive.
func CheckTeacherCount(teacherCount int) error {
	if teacherCount <= 0 {
		return fmt.Errorf("TeacherCount is %d, must be strictly positive", teacherCount)
	}
	if teacherCount == 1 {
		log.Warningf("TeacherCount is 1: a single teacher offers no aggregation privacy")
	}
	return nil
}

// CheckGamma returns an error if the confidence threshold γ is not between 0 and 1.
func CheckGamma(gamma float64, name ...string) error {
	gamName, err := verifyName(gammaName, name)
	if err != nil {
		return err
	}
	if gamma <= 0 || gamma >= 1 || math.IsNaN(gamma) || math.IsInf(gamma, 0) {
		return fmt.Errorf("%s is %f, must be within (0, 1) and finite", gamName, gamma)
	}
	return nil
}

// CheckThreshold returns an error if the vote threshold T is NaN or ±∞.
func CheckThreshold(threshold float64, name ...string) error {
	thrName, err := verifyName(thresholdName, name)
	if err != nil {
		return err
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return fmt.Errorf("%s is %f, must be finite", thrName, threshold)
	}
	return nil
}

// CheckOrders returns an error if the Rényi order grid is empty, contains an
// order less than or equal to 1, or is not strictly increasing.
func CheckOrders(orders []float64) error {
	if len(orders) == 0 {
		return fmt.Errorf("Orders is empty, must contain at least one order")
	}
	for i, o := range orders {
		if o <= 1 || math.IsInf(o, 0) || math.IsNaN(o) {
			return fmt.Errorf("Orders[%d] is %f, must be greater than 1 and finite", i, o)
		}
		if i > 0 && orders[i-1] >= o {
			return fmt.Errorf("Orders must be strictly increasing, got %f after %f at position %d", o, orders[i-1], i)
		}
	}
	return nil
}
