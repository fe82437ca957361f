// Package registry holds the table of source domains the pipeline knows
// about. Descriptors are registered once at startup; ambiguity between two
// domains' file patterns is a boot-time configuration error, never a
// per-file decision.
package registry

import (
	"time"

	"github.com/kurochkinivan/csv_ingestor/internal/domain"
)

type Registry struct {
	descriptors []*domain.Descriptor
	byName      map[string]*domain.Descriptor
}

func New() *Registry {
	return &Registry{
		byName: make(map[string]*domain.Descriptor),
	}
}

// Register adds a descriptor, checking it against every already-registered
// domain. Overlapping patterns are rejected eagerly so Resolve can never see
// an ambiguous file name.
func (r *Registry) Register(d *domain.Descriptor) error {
	if d.Name == "" {
		return &domain.ConfigurationError{Domain: d.Name, Reason: "empty domain name"}
	}

	if len(d.Events) == 0 {
		return &domain.ConfigurationError{Domain: d.Name, Reason: "no event types declared"}
	}

	for eventType, spec := range d.Events {
		if len(spec.Columns) == 0 || spec.Table == "" || spec.NewRow == nil {
			return &domain.ConfigurationError{
				Domain: d.Name,
				Reason: "incomplete spec for event type " + string(eventType),
			}
		}
	}

	if _, ok := r.byName[d.Name]; ok {
		return &domain.ConfigurationError{Domain: d.Name, Reason: "domain already registered"}
	}

	for _, existing := range r.descriptors {
		if existing.Pattern.Overlaps(d.Pattern) {
			return &domain.ConfigurationError{
				Domain: d.Name,
				Reason: "file pattern overlaps with domain " + existing.Name,
			}
		}
	}

	r.descriptors = append(r.descriptors, d)
	r.byName[d.Name] = d

	return nil
}

// Match is a successful resolution of a file name to a domain.
type Match struct {
	Descriptor *domain.Descriptor
	EventType  domain.EventType
	Kind       domain.EventKind
	FileDate   time.Time
}

// Resolve finds the single domain whose pattern matches fileName. File names
// that match a domain's pattern but carry an unknown TYPE segment resolve to
// ErrNoMatch as well, so foreign files can share the input directory.
func (r *Registry) Resolve(fileName string) (Match, error) {
	for _, d := range r.descriptors {
		eventType, fileDate, ok := d.Pattern.Match(fileName)
		if !ok {
			continue
		}

		spec, ok := d.Events[eventType]
		if !ok {
			continue
		}

		return Match{
			Descriptor: d,
			EventType:  eventType,
			Kind:       spec.Kind,
			FileDate:   fileDate,
		}, nil
	}

	return Match{}, domain.ErrNoMatch
}

// Descriptor returns the registered descriptor for a domain name.
func (r *Registry) Descriptor(name string) (*domain.Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Domains lists registered domain names in registration order.
func (r *Registry) Domains() []string {
	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.Name)
	}

	return names
}
