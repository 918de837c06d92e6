package mdx

import (
	"context"
	"os"

	"github.com/kerneld-io/kerneld/internal/kernel"
	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// Service is the dictionary lookup service a kernel run registers into its
// Injector: one or more archives searched in configuration order. Lookup
// returns the matches of every archive, in that order; it does not stop at
// the first archive that has a match.
type Service struct {
	dicts []*Dict
}

// OpenService opens every path as an MDX archive, in order.
func OpenService(paths []string) (*Service, error) {
	dicts := make([]*Dict, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, kerrors.Wrap(err, "mdx: reading archive %s", p)
		}
		d, err := Open(data)
		if err != nil {
			return nil, kerrors.Wrap(err, "mdx: opening archive %s", p)
		}
		dicts = append(dicts, d)
	}
	return &Service{dicts: dicts}, nil
}

// Lookup returns every (keyword, text) pair across every loaded archive
// whose keyword contains substring, archives searched in configuration
// order.
func (s *Service) Lookup(substring string) ([]KeyRecord, error) {
	var out []KeyRecord
	for _, d := range s.dicts {
		results, err := d.Search(substring)
		if err != nil {
			return nil, err
		}
		out = append(out, results...)
	}
	return out, nil
}

// Module registers a dictionary Service built from Paths into the kernel
// Injector. It has no background work, so Init is a no-op once EarlyInit has
// registered the service.
type Module struct {
	Paths []string
}

func (m *Module) EarlyInit(ctx context.Context, inj *kernel.Injector) error {
	svc, err := OpenService(m.Paths)
	if err != nil {
		return err
	}
	kernel.Insert(inj, svc)
	return nil
}

func (m *Module) Init(ctx context.Context, inj *kernel.Injector) error { return nil }
