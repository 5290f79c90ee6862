package assign

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/vmtlabs/tinsel/internal/domain/roster"
)

// Curated is a hand-authored pairing, written by name for readability and
// validated once at construction. It satisfies the same contract as Seeded:
// total, self-avoiding and one-to-one.
type Curated struct {
	byID map[string]string
}

// NewCurated validates a name -> name pairing against the roster and resolves
// it to ids. Validation fails if any participant lacks an outgoing mapping,
// a name on either side is unknown, anyone maps to themselves, or two givers
// share a recipient.
func NewCurated(r *roster.Roster, byName map[string]string) (*Curated, error) {
	for _, p := range r.All() {
		if _, ok := byName[p.Name]; !ok {
			return nil, fmt.Errorf("%w: missing mapping for %q", ErrInvalidPairing, p.Name)
		}
	}

	byID := make(map[string]string, len(byName))
	recipients := make(map[string]struct{}, len(byName))
	for fromName, toName := range byName {
		from, ok := r.ByName(fromName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown giver %q", ErrInvalidPairing, fromName)
		}
		to, ok := r.ByName(toName)
		if !ok {
			return nil, fmt.Errorf("%w: mapping for %q points to unknown name %q", ErrInvalidPairing, fromName, toName)
		}
		if fromName == toName {
			return nil, fmt.Errorf("%w: %q cannot be assigned to themselves", ErrInvalidPairing, fromName)
		}
		if _, dup := recipients[to.ID]; dup {
			return nil, fmt.Errorf("%w: recipient %q assigned more than once", ErrInvalidPairing, toName)
		}
		recipients[to.ID] = struct{}{}
		byID[from.ID] = to.ID
	}
	return &Curated{byID: byID}, nil
}

// Assignments implements Source.
func (c *Curated) Assignments() map[string]string {
	out := make(map[string]string, len(c.byID))
	for k, v := range c.byID {
		out[k] = v
	}
	return out
}

// LoadPairing reads a YAML name -> name pairing file of the form:
//
//	pairing:
//	  Ada: Grace
//	  Grace: Ada
func LoadPairing(path string) (map[string]string, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadPairing, err)
	}
	var raw struct {
		Pairing map[string]string `koanf:"pairing"`
	}
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadPairing, err)
	}
	if len(raw.Pairing) == 0 {
		return nil, fmt.Errorf("%w: no pairing entries in %s", ErrLoadPairing, path)
	}
	return raw.Pairing, nil
}
