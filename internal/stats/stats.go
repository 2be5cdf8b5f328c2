// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package stats holds the population statistics shared by the analyzers.
package stats

import "math"

// Summary describes a series of values.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Mean returns the arithmetic mean, 0 for an empty series. A constant
// series returns its value exactly.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	if constant(data) {
		return data[0]
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// StdDev is the population standard deviation (divides by N). It is
// exactly 0 for a constant series.
func StdDev(data []float64) float64 {
	if len(data) == 0 || constant(data) {
		return 0
	}
	m := Mean(data)
	variance := 0.0
	for _, v := range data {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(data))
	return math.Sqrt(variance)
}

func constant(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}

// MinMax returns the extremes of data, both 0 when empty.
func MinMax(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Summarize computes mean, population stddev and range in one call.
func Summarize(data []float64) Summary {
	lo, hi := MinMax(data)
	return Summary{
		Mean:   Mean(data),
		StdDev: StdDev(data),
		Min:    lo,
		Max:    hi,
	}
}
