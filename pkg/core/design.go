// Package core provides the data model shared by the VIR-CLASP enrichment pipeline:
// peptide and protein records, sample designs, significance calls and the error taxonomy.
package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Role tags a sample as treatment (pulldown) or control (no-crosslink / no-treatment).
type Role int

const (
	RoleUnknown Role = iota
	RoleTreatment
	RoleControl
)

func (r Role) String() string {
	switch r {
	case RoleTreatment:
		return "treatment"
	case RoleControl:
		return "control"
	default:
		return "unknown"
	}
}

// Sample is one intensity column of an experiment, tagged at ingestion time.
type Sample struct {
	Name      string // Column name as it appears in the input table
	Condition string // Experimental condition (e.g. timepoint)
	Role      Role
	Replicate int // 1-based replicate number
}

// SampleNaming parses sample names of the form <condition>_<prefix><replicate>.
type SampleNaming struct {
	TreatmentPrefix string
	ControlPrefix   string
}

// DefaultSampleNaming returns the naming convention <condition>_treatment<n> / <condition>_control<n>.
func DefaultSampleNaming() SampleNaming {
	return SampleNaming{TreatmentPrefix: "treatment", ControlPrefix: "control"}
}

// Parse converts a sample name into a tagged Sample.
func (n SampleNaming) Parse(name string) (Sample, error) {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, "_")
	if idx <= 0 || idx == len(name)-1 {
		return Sample{}, &SchemaError{
			Field:   name,
			Message: "sample name does not match <condition>_<role><replicate>",
		}
	}

	condition, suffix := name[:idx], name[idx+1:]

	// Try the longer prefix first so that e.g. "c" and "ctrl" can coexist.
	prefixes := []struct {
		prefix string
		role   Role
	}{
		{n.TreatmentPrefix, RoleTreatment},
		{n.ControlPrefix, RoleControl},
	}
	sort.SliceStable(prefixes, func(i, j int) bool {
		return len(prefixes[i].prefix) > len(prefixes[j].prefix)
	})

	for _, p := range prefixes {
		if p.prefix == "" || !strings.HasPrefix(suffix, p.prefix) {
			continue
		}
		rep, err := strconv.Atoi(suffix[len(p.prefix):])
		if err != nil || rep <= 0 {
			continue
		}
		return Sample{Name: name, Condition: condition, Role: p.role, Replicate: rep}, nil
	}

	return Sample{}, &SchemaError{
		Field:   name,
		Message: fmt.Sprintf("sample suffix %q is neither %s<n> nor %s<n>", suffix, n.TreatmentPrefix, n.ControlPrefix),
	}
}

// Design describes the samples of one condition.
type Design struct {
	Condition string
	Samples   []Sample
}

// NewDesign builds a design for a condition, ordering samples by role then replicate.
func NewDesign(condition string, samples []Sample) Design {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Role != sorted[j].Role {
			return sorted[i].Role < sorted[j].Role
		}
		if sorted[i].Replicate != sorted[j].Replicate {
			return sorted[i].Replicate < sorted[j].Replicate
		}
		return sorted[i].Name < sorted[j].Name
	})
	return Design{Condition: condition, Samples: sorted}
}

// Treatments returns the treatment samples in replicate order.
func (d Design) Treatments() []Sample {
	return d.byRole(RoleTreatment)
}

// Controls returns the control samples in replicate order.
func (d Design) Controls() []Sample {
	return d.byRole(RoleControl)
}

func (d Design) byRole(role Role) []Sample {
	var out []Sample
	for _, s := range d.Samples {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}

// TreatmentNames returns the names of the treatment samples in replicate order.
func (d Design) TreatmentNames() []string {
	var names []string
	for _, s := range d.Treatments() {
		names = append(names, s.Name)
	}
	return names
}

// Lookup finds a sample by name.
func (d Design) Lookup(name string) (Sample, bool) {
	for _, s := range d.Samples {
		if s.Name == name {
			return s, true
		}
	}
	return Sample{}, false
}

// Validate checks that the design has at least one treatment and one control sample,
// that every sample belongs to the design's condition and that no name or replicate repeats.
func (d Design) Validate() error {
	var errs []string

	if d.Condition == "" {
		errs = append(errs, "condition is required")
	}
	if len(d.Treatments()) == 0 {
		errs = append(errs, "at least one treatment sample is required")
	}
	if len(d.Controls()) == 0 {
		errs = append(errs, "at least one control sample is required")
	}

	names := make(map[string]bool)
	reps := make(map[string]bool)
	for _, s := range d.Samples {
		if s.Condition != d.Condition {
			errs = append(errs, fmt.Sprintf("sample %s belongs to condition %s", s.Name, s.Condition))
		}
		if s.Role == RoleUnknown {
			errs = append(errs, fmt.Sprintf("sample %s has no role", s.Name))
		}
		if names[s.Name] {
			errs = append(errs, fmt.Sprintf("duplicate sample %s", s.Name))
		}
		names[s.Name] = true

		key := fmt.Sprintf("%s/%d", s.Role, s.Replicate)
		if reps[key] {
			errs = append(errs, fmt.Sprintf("duplicate %s replicate %d", s.Role, s.Replicate))
		}
		reps[key] = true
	}

	if len(errs) > 0 {
		return &SchemaError{
			Field:   "Design " + d.Condition,
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}
