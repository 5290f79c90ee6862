// Package roster holds the fixed participant list for one deployment.
//
// The roster is read-only input: ids are slugs derived from display names,
// pins are shared low-entropy party tokens used only by the reveal endpoint.
package roster

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Participant is one roster entry.
type Participant struct {
	ID   string `koanf:"id" json:"id"`
	Name string `koanf:"name" json:"name"`
	PIN  string `koanf:"pin" json:"-"`
}

// Roster is an ordered participant list with id and name lookups.
type Roster struct {
	list   []Participant
	byID   map[string]Participant
	byName map[string]Participant
}

// Slug derives a stable participant id from a display name: trimmed,
// lowercased, spaces collapsed to dashes, anything outside [a-z0-9-] dropped.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	var b strings.Builder
	for _, r := range s {
		if r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// New builds a Roster from participants, deriving missing ids from names.
func New(participants []Participant) (*Roster, error) {
	r := &Roster{
		list:   make([]Participant, 0, len(participants)),
		byID:   make(map[string]Participant, len(participants)),
		byName: make(map[string]Participant, len(participants)),
	}
	for _, p := range participants {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("%w: participant with empty name", ErrInvalidRoster)
		}
		if p.ID == "" {
			p.ID = Slug(p.Name)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%w: name %q yields an empty id", ErrInvalidRoster, p.Name)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate participant id %q", ErrInvalidRoster, p.ID)
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate participant name %q", ErrInvalidRoster, p.Name)
		}
		r.list = append(r.list, p)
		r.byID[p.ID] = p
		r.byName[p.Name] = p
	}
	return r, nil
}

// Load reads a YAML roster file of the form:
//
//	participants:
//	  - name: Ada
//	    pin: "7482"
func Load(path string) (*Roster, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadRoster, err)
	}
	var raw struct {
		Participants []Participant `koanf:"participants"`
	}
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadRoster, err)
	}
	return New(raw.Participants)
}

// IDs returns participant ids in roster order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.list))
	for i, p := range r.list {
		ids[i] = p.ID
	}
	return ids
}

// All returns participants in roster order.
func (r *Roster) All() []Participant {
	out := make([]Participant, len(r.list))
	copy(out, r.list)
	return out
}

// ByID looks a participant up by id.
func (r *Roster) ByID(id string) (Participant, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// ByName looks a participant up by display name.
func (r *Roster) ByName(name string) (Participant, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Len returns the roster size.
func (r *Roster) Len() int {
	return len(r.list)
}

// Authenticate checks a participant's pin. Pins are not secrets in any real
// sense, but the comparison is constant-time anyway.
func (r *Roster) Authenticate(id, pin string) bool {
	p, ok := r.byID[id]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(p.PIN), []byte(pin)) == 1
}
