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

// Package rand provides cryptographically secure random samples for the
// vote-perturbation and epsilon-release mechanisms.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	mathrand "math/rand"
	"sync"

	log "github.com/golang/glog"
)

var (
	randBufLock sync.Mutex
	randBuf     io.Reader = bufio.NewReaderSize(cryptorand.Reader, 65536)
)

func readRandBuf(b []byte) (int, error) {
	randBufLock.Lock()
	defer randBufLock.Unlock()
	return io.ReadFull(randBuf, b)
}

// Normal returns a normally distributed float with mean 0 and standard deviation 1.
//
// Each call draws fresh entropy from the underlying cryptographic source, so
// successive samples are independent.
func Normal() float64 {
	return mathrand.New(&randSource{}).NormFloat64()
}

// NormalSigma returns a normally distributed float with the given mean and
// standard deviation. A sigma of 0 returns the mean exactly.
func NormalSigma(mean, sigma float64) float64 {
	if sigma == 0 {
		return mean
	}
	return mean + sigma*Normal()
}

// randSource implements a cryptographically secure implementation of math.Source.
type randSource struct{}

// Int63 returns a uniformly random int64 in [0, 1<<63).
func (rs randSource) Int63() int64 {
	var r [8]uint8
	if _, err := readRandBuf(r[:]); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	i := int64(binary.LittleEndian.Uint64(r[:]))
	if i < 0 {
		return -i
	}
	return i
}

// Seed is a no-op.
func (rs randSource) Seed(_ int64) {}
