// Package typedvalue implements C1: validated "<kind>:<value>" pairs drawn
// from a closed, category-specific kind vocabulary loaded once from a
// static JSON dictionary embedded in the binary, optionally replaced at
// startup by an operator-supplied YAML override file.
package typedvalue

import (
	"embed"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/apparentlymart/go-cidr/cidr"
	"gopkg.in/yaml.v3"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

//go:embed data/*.json
var dictionaryFS embed.FS

// Category is one of the closed set of typed-value categories.
type Category string

const (
	Label      Category = "label"
	Capacity   Category = "cap"
	Location   Category = "location"
	Constraint Category = "constraint"
)

// Separator must not appear in a kind; values may contain it freely.
const Separator = ":"

var categoryFiles = map[Category]string{
	Label:      "data/label_types.json",
	Capacity:   "data/capacity_types.json",
	Location:   "data/location_types.json",
	Constraint: "data/constraint_types.json",
}

type dictionary struct {
	kinds map[string]string
}

var (
	dictMu    sync.Mutex
	dictCache = map[Category]*dictionary{}
)

func loadDictionary(cat Category) (*dictionary, error) {
	dictMu.Lock()
	defer dictMu.Unlock()

	if d, ok := dictCache[cat]; ok {
		return d, nil
	}

	file, ok := categoryFiles[cat]
	if !ok {
		return nil, modelerrors.New(modelerrors.InvalidKind, "unknown typed value category %q", cat)
	}

	raw, err := dictionaryFS.ReadFile(file)
	if err != nil {
		return nil, modelerrors.Wrap(err, modelerrors.InvalidKind, "loading dictionary for category %q", cat)
	}

	var kinds map[string]string
	if err := json.Unmarshal(raw, &kinds); err != nil {
		return nil, modelerrors.Wrap(err, modelerrors.Malformed, "decoding dictionary for category %q", cat)
	}

	d := &dictionary{kinds: kinds}
	dictCache[cat] = d
	return d, nil
}

// LoadOverride replaces the embedded dictionary for cat with one read from
// a YAML file on disk, for deployments that need to extend the kind
// vocabulary without a rebuild (internal/config's Dictionaries paths).
// YAML, not the embedded dictionaries' JSON, because this is the one place
// the library reads operator-authored config-adjacent data rather than
// ARM/ADM wire data, matching how the teacher's config packages convert
// hand-edited YAML into structs.
func LoadOverride(cat Category, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return modelerrors.Wrap(err, modelerrors.InvalidKind, "reading dictionary override %q", path)
	}

	var kinds map[string]string
	if err := yaml.Unmarshal(raw, &kinds); err != nil {
		return modelerrors.Wrap(err, modelerrors.Malformed, "decoding dictionary override %q", path)
	}

	dictMu.Lock()
	defer dictMu.Unlock()
	dictCache[cat] = &dictionary{kinds: kinds}
	return nil
}

// Value is a validated (kind, value) pair within one category.
type Value struct {
	category Category
	kind     string
	value    string
}

// Category returns the category this value was parsed/validated against.
func (v Value) Category() Category { return v.category }

// Kind returns the type component.
func (v Value) Kind() string { return v.kind }

// Raw returns the value component, unparsed.
func (v Value) Raw() string { return v.value }

// Serialize returns the "kind:value" string form.
func (v Value) Serialize() string {
	return v.kind + Separator + v.value
}

// SameKind reports whether both values share category and kind.
func (v Value) SameKind(other Value) bool {
	return v.category == other.category && v.kind == other.kind
}

// Parse splits "kind:value" on the first separator and validates kind
// against the category's dictionary.
func Parse(cat Category, s string) (Value, error) {
	idx := strings.Index(s, Separator)
	if idx < 0 {
		return Value{}, modelerrors.New(modelerrors.Malformed, "typed value %q has no %q separator", s, Separator)
	}
	return ParseFields(cat, s[:idx], s[idx+1:])
}

// ParseFields validates kind against the category's dictionary and, for
// range-shaped label kinds, additionally validates the value looks like a
// CIDR block or an inclusive numeric/address range.
func ParseFields(cat Category, kind, value string) (Value, error) {
	d, err := loadDictionary(cat)
	if err != nil {
		return Value{}, err
	}
	if _, ok := d.kinds[kind]; !ok {
		return Value{}, modelerrors.New(modelerrors.InvalidKind, "kind %q is not valid for category %q", kind, cat)
	}

	if strings.HasSuffix(kind, "_range") {
		if err := validateRange(kind, value); err != nil {
			return Value{}, err
		}
	}

	return Value{category: cat, kind: kind, value: value}, nil
}

// validateRange applies a light sanity check to *_range kinds: an IPv4/IPv6
// range must parse as CIDR (github.com/apparentlymart/go-cidr), other
// ranges (e.g. vlan_range) must be a "lo-hi" pair of non-negative integers.
func validateRange(kind, value string) error {
	if strings.HasPrefix(kind, "ipv4") || strings.HasPrefix(kind, "ipv6") {
		if err := validateAddressRange(value); err != nil {
			return modelerrors.Wrap(err, modelerrors.Malformed, "invalid address range %q for kind %q", value, kind)
		}
		return nil
	}

	lo, hi, found := strings.Cut(value, "-")
	if !found {
		return modelerrors.New(modelerrors.Malformed, "invalid range %q for kind %q, expected lo-hi", value, kind)
	}
	loN, loErr := strconv.Atoi(strings.TrimSpace(lo))
	hiN, hiErr := strconv.Atoi(strings.TrimSpace(hi))
	if loErr != nil || hiErr != nil || loN < 0 || hiN < 0 {
		return modelerrors.New(modelerrors.Malformed, "invalid range %q for kind %q, expected lo-hi", value, kind)
	}
	return nil
}

// validateAddressRange accepts either a CIDR block ("10.0.0.0/24"), handed
// to go-cidr to confirm it denotes a non-degenerate range, or a dashed pair
// of addresses ("10.0.0.1-10.0.0.254").
func validateAddressRange(value string) error {
	if strings.Contains(value, "/") {
		_, ipnet, err := net.ParseCIDR(value)
		if err != nil {
			return err
		}
		first, last := cidr.AddressRange(ipnet)
		if first == nil || last == nil {
			return fmt.Errorf("empty CIDR range %q", value)
		}
		return nil
	}

	lo, hi, found := strings.Cut(value, "-")
	if !found || net.ParseIP(strings.TrimSpace(lo)) == nil || net.ParseIP(strings.TrimSpace(hi)) == nil {
		return fmt.Errorf("expected CIDR or lo-hi address range, got %q", value)
	}
	return nil
}
