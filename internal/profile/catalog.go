package profile

import (
	"encoding/json"

	"github.com/juju/errors"
)

// Catalog is replaced wholesale, never modified in place.
type Catalog []Profile

// ParseCatalog accepts JSON array of profile records, "type" optional.
// Any malformed record rejects the whole catalog.
func ParseCatalog(b []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, errors.Annotate(err, "profile catalog")
	}
	return c, nil
}

// Index of profile with given name, -1 if not found.
func (c Catalog) Index(name string) int {
	for i := range c {
		if c[i].name == name {
			return i
		}
	}
	return -1
}

func (c Catalog) Names() []string {
	ss := make([]string, len(c))
	for i := range c {
		ss[i] = c[i].name
	}
	return ss
}
