// Package codec writes stored graph fragments in external formats and reads
// device inventories from them.
package codec

import (
	"fmt"
	"io"
	"sort"

	"switchgraph/internal/config"
	"switchgraph/internal/domain"
)

// Exporter writes a graph fragment in one format
type Exporter interface {
	Export(fragment *domain.GraphFragment, w io.Writer) error
	Format() string
}

// Importer reads device inventory entries from one format
type Importer interface {
	Parse(r io.Reader) ([]config.DeviceConfig, error)
	Format() string
}

var exporters = map[string]Exporter{}

func register(e Exporter) {
	exporters[e.Format()] = e
}

func init() {
	register(NewJSONCodec())
	register(NewYAMLCodec())
	register(NewAnsibleCodec())
}

// ExporterFor returns the exporter of format
func ExporterFor(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (supported: %v)", format, Formats())
	}
	return e, nil
}

// Formats lists the supported export formats
func Formats() []string {
	out := make([]string, 0, len(exporters))
	for f := range exporters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
