package registry

import "github.com/kurochkinivan/csv_ingestor/internal/domain"

// Bootstrap builds the registry of all known source domains. Adding a new
// domain means constructing one more descriptor value here; the pipeline
// itself never changes.
func Bootstrap() (*Registry, error) {
	r := New()

	for _, d := range []*domain.Descriptor{
		IDPS(),
		ABIS(),
		Adjudication(),
	} {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}

	return r, nil
}
