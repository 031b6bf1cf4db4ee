/*
kinds.go - Per-kind validation configuration

PURPOSE:
  The student/teacher/staff domains share one record engine; everything that
  differs between them is captured here as data. A KindConfig is the complete
  description of what a kind's entries may contain.

KIND DIFFERENCES:
  student_class: scoped to a class; statuses PRESENT/ABSENT/LATE/LEAVE;
                 no in/out times, no substitutes
  teacher:       campus-wide; adds in/out times and substitute cover for
                 absent teachers
  staff:         campus-wide; adds in/out times and HALF_DAY

SEE ALSO:
  - reconcile.go: Applies these configs during a merge
*/
package attendance

// KindConfig describes what entries of a kind may contain.
type KindConfig struct {
	Kind             Kind
	Statuses         []Status
	TracksTime       bool // in/out times are meaningful
	AllowsSubstitute bool // absent entries may carry substitute cover
}

var kindConfigs = map[Kind]KindConfig{
	KindStudentClass: {
		Kind:     KindStudentClass,
		Statuses: []Status{StatusPresent, StatusAbsent, StatusLate, StatusLeave},
	},
	KindTeacher: {
		Kind:             KindTeacher,
		Statuses:         []Status{StatusPresent, StatusAbsent, StatusLate, StatusLeave},
		TracksTime:       true,
		AllowsSubstitute: true,
	},
	KindStaff: {
		Kind:       KindStaff,
		Statuses:   []Status{StatusPresent, StatusAbsent, StatusLate, StatusLeave, StatusHalfDay},
		TracksTime: true,
	},
}

// ConfigFor returns the configuration for a kind.
func ConfigFor(kind Kind) (KindConfig, error) {
	cfg, ok := kindConfigs[kind]
	if !ok {
		return KindConfig{}, &ValidationError{Field: "kind", Message: "unknown kind: " + string(kind)}
	}
	return cfg, nil
}

// ParseKind converts an external kind string (e.g. a URL segment).
func ParseKind(s string) (Kind, error) {
	kind := Kind(s)
	if _, ok := kindConfigs[kind]; !ok {
		return "", &ValidationError{Field: "kind", Message: "unknown kind: " + s}
	}
	return kind, nil
}

// ValidStatus reports whether a status value is allowed for this kind.
func (c KindConfig) ValidStatus(s Status) bool {
	for _, allowed := range c.Statuses {
		if allowed == s {
			return true
		}
	}
	return false
}
