package rpc

import "hash/fnv"

// HashArguments and HashParameters must agree for equivalent signatures, so
// that the server can disambiguate overloaded callables by the shape of
// the arguments a client actually sent (spec §4.F). Both reduce to the
// same combine-by-name procedure; they are named separately only to mirror
// the client/server split described by the spec.

// HashCombine folds v into seed the way the original implementation's
// hash_combine does (boost's combine, adapted to a single additive term
// since Go's hash/fnv already mixes well per input).
func HashCombine(seed uint64, v uint64) uint64 {
	return seed ^ (v + 0x9e3779b9 + (seed << 6) + (seed >> 2))
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// HashArguments computes the overload-resolution hash for a call site from
// the Go type names of its arguments, encoded in order.
func HashArguments(typeNames ...string) uint64 {
	return HashParameters(typeNames...)
}

// HashParameters computes the matching hash on the server side from a
// callable's declared parameter type names.
func HashParameters(typeNames ...string) uint64 {
	seed := uint64(14695981039346656037) // fnv offset basis, arbitrary but fixed seed
	for _, name := range typeNames {
		seed = HashCombine(seed, hashString(name))
	}
	return seed
}
