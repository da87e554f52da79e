package domain

import (
	"fmt"
	"math"
)

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol = 1_000_000_000

// SolToLamports converts a float64 SOL amount to int64 lamports.
// It validates that the input has at most 9 decimal places and that the
// scaled amount fits in an int64, returning an error otherwise. Uses
// math.Round after scaling to handle floating-point representation
// issues.
func SolToLamports(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("amount must be a finite number")
	}

	// Scale by 10^10 to check for a tenth decimal place.
	// Round to avoid floating-point artifacts (e.g., 1.1 * 1e10 = 1.0999999...e10).
	scaled := math.Round(f * 1e10)
	if math.Mod(scaled, 10) != 0 {
		return 0, fmt.Errorf("amounts must have at most 9 decimal places")
	}

	lamports := math.Round(f * LamportsPerSol)
	if lamports >= math.MaxInt64 || lamports <= math.MinInt64 {
		return 0, fmt.Errorf("amount is out of range")
	}
	return int64(lamports), nil
}

// LamportsToSol converts an int64 lamports value to a float64 SOL amount.
func LamportsToSol(l int64) float64 {
	return float64(l) / LamportsPerSol
}
