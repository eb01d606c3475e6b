// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package choice

import "math/rand/v2"

// Stream constants keep the two generators independent for the same seed.
const (
	generalStream = 0x9e3779b97f4a7c15
	numericStream = 0xd1b54a32d192ed03
)

// Generators is the pair of seeded sources used by one expansion.
// General serves slot draws (weights, count directives, shuffles); Numeric
// serves option-group draw counts and selections. Draws from one never
// shift the sequence of the other.
type Generators struct {
	Seed    uint64
	General *rand.Rand
	Numeric *rand.Rand
}

// NewGenerators seeds both generators from seed.
func NewGenerators(seed uint64) *Generators {
	return &Generators{
		Seed:    seed,
		General: rand.New(rand.NewPCG(seed, generalStream)),
		Numeric: rand.New(rand.NewPCG(seed, numericStream)),
	}
}

// NewUnseeded returns generators seeded from the runtime's entropy source.
func NewUnseeded() *Generators {
	return NewGenerators(rand.Uint64())
}
