package catalog

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Wrapper keys recognised when a source nests its table inside an object.
var (
	vehicleWrappers     = []string{"vehicle_factors", "vehicle_emission_factors", "passenger_and_motorbike_emission_factors"}
	fuelWrappers        = []string{"fuel_combustion_factors", "fuel_factors"}
	wasteWrappers       = []string{"waste_disposal_factors", "waste_factors"}
	electricitySection  = "electricity_per_country"
	electricityDefaults = []string{"electricity_default", "default"}
)

// Sources names the four factor documents on disk.
type Sources struct {
	Vehicle     string
	Electricity string
	Waste       string
	Fuel        string
}

// SourcesIn returns the conventional file names inside dir.
func SourcesIn(dir string) Sources {
	return Sources{
		Vehicle:     filepath.Join(dir, "vehicle_factors.json"),
		Electricity: filepath.Join(dir, "electricity_factors.json"),
		Waste:       filepath.Join(dir, "waste_factors.json"),
		Fuel:        filepath.Join(dir, "fuel_factors.json"),
	}
}

// Documents holds the raw bytes of the four factor documents. JSON and YAML
// are both accepted.
type Documents struct {
	Vehicle     []byte
	Electricity []byte
	Waste       []byte
	Fuel        []byte
}

// Load reads and parses the four sources. Any failure is fatal: a partially
// loaded catalog is never returned.
func Load(src Sources) (*Catalog, error) {
	var docs Documents
	files := []struct {
		table string
		path  string
		dst   *[]byte
	}{
		{TableVehicle, src.Vehicle, &docs.Vehicle},
		{TableElectricity, src.Electricity, &docs.Electricity},
		{TableWaste, src.Waste, &docs.Waste},
		{TableFuel, src.Fuel, &docs.Fuel},
	}

	for _, f := range files {
		if f.path == "" {
			return nil, fmt.Errorf("%w: %s factors: no source configured", ErrInvalidSource, f.table)
		}
		data, err := os.ReadFile(filepath.Clean(f.path))
		if err != nil {
			return nil, fmt.Errorf("%w: %s factors: read %s: %w", ErrInvalidSource, f.table, f.path, err)
		}
		*f.dst = data
	}

	return Parse(docs)
}

// Parse decodes the four documents into a Catalog.
func Parse(docs Documents) (*Catalog, error) {
	vehicles, err := parseFlat(TableVehicle, docs.Vehicle, vehicleWrappers)
	if err != nil {
		return nil, err
	}
	electricity, err := parseElectricity(docs.Electricity)
	if err != nil {
		return nil, err
	}
	waste, err := parseWaste(docs.Waste)
	if err != nil {
		return nil, err
	}
	fuels, err := parseFlat(TableFuel, docs.Fuel, fuelWrappers)
	if err != nil {
		return nil, err
	}

	return New(Tables{
		Vehicles:    vehicles,
		Electricity: electricity,
		Waste:       waste,
		Fuels:       fuels,
	}), nil
}

func sourceError(table string, kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s factors: %w: %s", ErrInvalidSource, table, kind, fmt.Sprintf(format, args...))
}

func decodeRoot(table string, data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, sourceError(table, ErrInvalidShape, "decode: %v", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, sourceError(table, ErrMissingSection, "empty document")
	}
	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, sourceError(table, ErrInvalidShape, "top level must be an object")
	}
	return root, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

type entry struct {
	key   string
	value *yaml.Node
}

func entries(m *yaml.Node) []entry {
	out := make([]entry, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		out = append(out, entry{key: m.Content[i].Value, value: resolve(m.Content[i+1])})
	}
	return out
}

// findSection returns the value of the first entry whose normalized key is one of names.
func findSection(m *yaml.Node, names []string) (*yaml.Node, bool) {
	for _, e := range entries(m) {
		k := Normalize(e.key)
		for _, name := range names {
			if k == name {
				return e.value, true
			}
		}
	}
	return nil, false
}

// unwrap selects the object carrying the table: an explicit wrapper key, a
// single-entry object whose only value is itself an object, or the root.
func unwrap(table string, root *yaml.Node, wrappers []string) (*yaml.Node, error) {
	if section, ok := findSection(root, wrappers); ok {
		if section == nil || section.Kind != yaml.MappingNode {
			return nil, sourceError(table, ErrMissingSection, "%q must be an object", wrappers[0])
		}
		return section, nil
	}
	all := entries(root)
	if len(all) == 1 && all[0].value != nil && all[0].value.Kind == yaml.MappingNode {
		return all[0].value, nil
	}
	return root, nil
}

func parseFlat(table string, data []byte, wrappers []string) (map[string]float64, error) {
	root, err := decodeRoot(table, data)
	if err != nil {
		return nil, err
	}
	section, err := unwrap(table, root, wrappers)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(section.Content)/2)
	for _, e := range entries(section) {
		key := Normalize(e.key)
		if key == "" {
			return nil, sourceError(table, ErrInvalidShape, "key %q normalizes to nothing", e.key)
		}
		factor, err := coerceFactor(table, e.key, e.value)
		if err != nil {
			return nil, err
		}
		if err := put(table, out, key, factor); err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, sourceError(table, ErrMissingSection, "no factors defined")
	}
	return out, nil
}

func parseElectricity(data []byte) (map[string]float64, error) {
	root, err := decodeRoot(TableElectricity, data)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	countries := root
	wrapped := false

	if section, ok := findSection(root, []string{electricitySection}); ok {
		if section == nil || section.Kind != yaml.MappingNode {
			return nil, sourceError(TableElectricity, ErrMissingSection, "%q must be an object", electricitySection)
		}
		countries, wrapped = section, true
		if def, ok := findSection(root, electricityDefaults); ok && !isNull(def) {
			factor, err := coerceFactor(TableElectricity, "electricity_default", def)
			if err != nil {
				return nil, err
			}
			out[ElectricityDefaultKey] = factor
		}
	} else {
		all := entries(root)
		if len(all) == 1 && all[0].value != nil && all[0].value.Kind == yaml.MappingNode {
			countries = all[0].value
		}
	}

	found := 0
	for _, e := range entries(countries) {
		if !wrapped && isDefaultKey(e.key) {
			factor, err := coerceFactor(TableElectricity, e.key, e.value)
			if err != nil {
				return nil, err
			}
			out[ElectricityDefaultKey] = factor
			continue
		}
		code := CountryCode(e.key)
		if code == "" || code == ElectricityDefaultKey {
			return nil, sourceError(TableElectricity, ErrInvalidShape, "invalid country code %q", e.key)
		}
		factor, err := coerceFactor(TableElectricity, e.key, e.value)
		if err != nil {
			return nil, err
		}
		if err := put(TableElectricity, out, code, factor); err != nil {
			return nil, err
		}
		found++
	}
	if found == 0 {
		return nil, sourceError(TableElectricity, ErrMissingSection, "no country factors defined")
	}
	return out, nil
}

func isDefaultKey(key string) bool {
	k := Normalize(key)
	for _, name := range electricityDefaults {
		if k == name {
			return true
		}
	}
	return false
}

// parseWaste accepts, per waste type, either a nested method object
// ({"paper": {"recycle": 21.1, "default": 15}}) or a single number under a
// flat "<type>_<method>" key split at its last underscore. A single number
// under a key without an underscore becomes that type's default.
func parseWaste(data []byte) (map[string]map[string]float64, error) {
	root, err := decodeRoot(TableWaste, data)
	if err != nil {
		return nil, err
	}
	section := root
	if s, ok := findSection(root, wasteWrappers); ok {
		if s == nil || s.Kind != yaml.MappingNode {
			return nil, sourceError(TableWaste, ErrMissingSection, "%q must be an object", wasteWrappers[0])
		}
		section = s
	}

	out := make(map[string]map[string]float64)
	add := func(wasteType, method string, factor float64) error {
		methods, ok := out[wasteType]
		if !ok {
			methods = make(map[string]float64)
			out[wasteType] = methods
		}
		return put(TableWaste, methods, method, factor)
	}

	for _, e := range entries(section) {
		key := Normalize(e.key)
		if key == "" {
			return nil, sourceError(TableWaste, ErrInvalidShape, "key %q normalizes to nothing", e.key)
		}

		if e.value != nil && e.value.Kind == yaml.MappingNode {
			nested := entries(e.value)
			if len(nested) == 0 {
				return nil, sourceError(TableWaste, ErrMissingSection, "waste type %q has no methods", e.key)
			}
			for _, m := range nested {
				method := Normalize(m.key)
				if method == "" {
					return nil, sourceError(TableWaste, ErrInvalidShape, "method %q of %q normalizes to nothing", m.key, e.key)
				}
				factor, err := coerceFactor(TableWaste, e.key+"."+m.key, m.value)
				if err != nil {
					return nil, err
				}
				if err := add(key, method, factor); err != nil {
					return nil, err
				}
			}
			continue
		}

		factor, err := coerceFactor(TableWaste, e.key, e.value)
		if err != nil {
			return nil, err
		}
		wasteType, method := key, WasteDefaultMethod
		if idx := strings.LastIndex(key, "_"); idx > 0 {
			wasteType, method = key[:idx], key[idx+1:]
		}
		if err := add(wasteType, method, factor); err != nil {
			return nil, err
		}
	}

	if len(out) == 0 {
		return nil, sourceError(TableWaste, ErrMissingSection, "no factors defined")
	}
	return out, nil
}

func put(table string, m map[string]float64, key string, factor float64) error {
	if existing, ok := m[key]; ok && existing != factor {
		return sourceError(table, ErrDuplicateKey, "%q defined as both %v and %v", key, existing, factor)
	}
	m[key] = factor
	return nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// coerceFactor accepts integer, float and numeric string scalars.
func coerceFactor(table, key string, n *yaml.Node) (float64, error) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return 0, sourceError(table, ErrNonNumeric, "%q is not a scalar", key)
	}

	switch n.Tag {
	case "!!int", "!!float", "!!str":
	default:
		return 0, sourceError(table, ErrNonNumeric, "%q has value %q", key, n.Value)
	}

	raw := strings.TrimSpace(n.Value)
	if n.Tag != "!!str" {
		raw = strings.ReplaceAll(raw, "_", "")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, sourceError(table, ErrNonNumeric, "%q has value %q", key, n.Value)
	}
	return v, nil
}
