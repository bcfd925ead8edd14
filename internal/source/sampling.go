// Package source loads sampled registry and crawl records from the staged
// tables for a matching run.
package source

import "fmt"

// SamplingPolicy produces the SQL predicate that bounds how much of a staged
// table a run reads. Policies are injected so dev runs can work a thin slice
// while production runs the full volume.
type SamplingPolicy interface {
	// Predicate returns a boolean SQL expression over the given key column.
	Predicate(key string) string
}

// ModulusPolicy keeps roughly one record in Modulus by filtering on
// key % Modulus = 0. A modulus of 1 or less disables sampling.
type ModulusPolicy struct {
	Modulus int64
}

func (p ModulusPolicy) Predicate(key string) string {
	if p.Modulus <= 1 {
		return "TRUE"
	}
	return fmt.Sprintf("(%s) %% %d = 0", key, p.Modulus)
}

// FullVolumePolicy selects every record.
type FullVolumePolicy struct{}

func (FullVolumePolicy) Predicate(string) string { return "TRUE" }
