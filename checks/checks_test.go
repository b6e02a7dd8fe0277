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

package checks

import (
	"math"
	"testing"
)

func TestCheckDeltaStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		delta   float64
		wantErr bool
	}{
		{"negative delta",
			-2,
			true},
		{"zero delta",
			0,
			true},
		{"delta is NaN",
			math.NaN(),
			true},
		{"delta == 1",
			1,
			true},
		{"delta > 1",
			2,
			true},
		{"valid delta",
			1e-5,
			false},
	} {
		if err := CheckDeltaStrict(tc.delta); (err != nil) != tc.wantErr {
			t.Errorf("CheckDeltaStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckSigma(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		sigma   float64
		wantErr bool
	}{
		{"negative sigma",
			-1,
			true},
		{"zero sigma",
			0,
			true},
		{"sigma is NaN",
			math.NaN(),
			true},
		{"sigma is positive infinity",
			math.Inf(1),
			true},
		{"valid sigma",
			2.5,
			false},
	} {
		if err := CheckSigma(tc.sigma); (err != nil) != tc.wantErr {
			t.Errorf("CheckSigma: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckTeacherCount(t *testing.T) {
	for _, tc := range []struct {
		desc         string
		teacherCount int
		wantErr      bool
	}{
		{"negative teacher count",
			-5,
			true},
		{"zero teacher count",
			0,
			true},
		{"single teacher",
			1,
			false},
		{"valid teacher count",
			250,
			false},
	} {
		if err := CheckTeacherCount(tc.teacherCount); (err != nil) != tc.wantErr {
			t.Errorf("CheckTeacherCount: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckGamma(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		gamma   float64
		wantErr bool
	}{
		{"zero gamma",
			0,
			true},
		{"gamma == 1",
			1,
			true},
		{"gamma is NaN",
			math.NaN(),
			true},
		{"valid gamma",
			0.7,
			false},
	} {
		if err := CheckGamma(tc.gamma); (err != nil) != tc.wantErr {
			t.Errorf("CheckGamma: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckThreshold(t *testing.T) {
	for _, tc := range []struct {
		desc      string
		threshold float64
		wantErr   bool
	}{
		{"threshold is NaN",
			math.NaN(),
			true},
		{"threshold is positive infinity",
			math.Inf(1),
			true},
		{"negative threshold",
			-10,
			false},
		{"valid threshold",
			50,
			false},
	} {
		if err := CheckThreshold(tc.threshold); (err != nil) != tc.wantErr {
			t.Errorf("CheckThreshold: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckOrders(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		orders  []float64
		wantErr bool
	}{
		{"empty grid",
			nil,
			true},
		{"order below 1",
			[]float64{0.5, 2, 3},
			true},
		{"order equal to 1",
			[]float64{1, 2, 3},
			true},
		{"not strictly increasing",
			[]float64{2, 3, 3},
			true},
		{"decreasing",
			[]float64{4, 3, 2},
			true},
		{"order is NaN",
			[]float64{2, math.NaN()},
			true},
		{"valid grid",
			[]float64{2, 3, 4.5, 100},
			false},
	} {
		if err := CheckOrders(tc.orders); (err != nil) != tc.wantErr {
			t.Errorf("CheckOrders: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}
