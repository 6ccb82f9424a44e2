package domain

// MissingRef is displayed in place of a reference whose target is unset or
// no longer exists.
const MissingRef = "—"

// Ref is a weak, id-based pointer to another entity of the same project.
// Existence of the target is never enforced; readers resolve it on demand.
type Ref string

func (r Ref) IsZero() bool { return r == "" }

// Resolve returns the label lookup yields for the referenced id, or
// MissingRef when the reference is unset or dangling.
func (r Ref) Resolve(lookup func(id string) (string, bool)) string {
	if r == "" || lookup == nil {
		return MissingRef
	}
	label, ok := lookup(string(r))
	if !ok || label == "" {
		return MissingRef
	}
	return label
}

func lookupIn[T Entity[T]](items []T, label func(T) string) func(string) (string, bool) {
	return func(id string) (string, bool) {
		for _, it := range items {
			if it.EntityID() == id {
				return label(it), true
			}
		}
		return "", false
	}
}

func (p Project) MemberName(r Ref) string {
	return r.Resolve(lookupIn(p.Members, func(m Member) string { return m.Name }))
}

func (p Project) TaskTitle(r Ref) string {
	return r.Resolve(lookupIn(p.Tasks, func(t Task) string { return t.Title }))
}

func (p Project) MilestoneTitle(r Ref) string {
	return r.Resolve(lookupIn(p.Milestones, func(m Milestone) string { return m.Title }))
}

func (p Project) VendorName(r Ref) string {
	return r.Resolve(lookupIn(p.Vendors, func(v Vendor) string { return v.Name }))
}

func (p Project) SystemName(r Ref) string {
	return r.Resolve(lookupIn(p.Systems, func(s System) string { return s.Name }))
}

func (p Project) MeetingTitle(r Ref) string {
	return r.Resolve(lookupIn(p.Meetings, func(m Meeting) string { return m.Title }))
}

// DependencyTitles resolves a task's dependency ids. Dependencies on deleted
// tasks are kept and rendered as MissingRef.
func (p Project) DependencyTitles(t Task) []string {
	titles := make([]string, 0, len(t.Dependencies))
	for _, id := range t.Dependencies {
		titles = append(titles, p.TaskTitle(Ref(id)))
	}
	return titles
}
