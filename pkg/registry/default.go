package registry

// Default is the process-wide registry every internal/tasks file
// populates at init time. Kept as a package-level var rather than a
// singleton behind a constructor, matching spec.md §9's "module-level
// constant populated during init" guidance for statically-typed
// targets.
var Default = New()

// MustRegister registers d on Default. It is named "Must" because a
// duplicate or otherwise invalid registration is a startup-time
// programming error, not a recoverable runtime condition.
func MustRegister(d Descriptor) {
	Default.Register(d)
}
