// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package directory provides the static reference data of Nigerian states, LGAs, city areas and
// landmarks together with a substring search over all of them.
package directory

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// MaxResults is the maximum number of matches returned by Search.
const MaxResults = 20

//go:embed data/nigeria.yaml
var embeddedData []byte

// Default returns the directory built from the embedded dataset. It is parsed once.
var Default = sync.OnceValues(func() (*Directory, error) {
	return Load(bytes.NewReader(embeddedData))
})

// Kind is the category of a directory entry.
type Kind int

const (
	KindState Kind = iota
	KindLGA
	KindArea
	KindLandmark
)

func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindLGA:
		return "lga"
	case KindArea:
		return "area"
	case KindLandmark:
		return "landmark"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// State is a Nigerian state (or the FCT) with its LGAs in order.
type State struct {
	Name string   `yaml:"name" json:"name"`
	Code string   `yaml:"code" json:"code"`
	LGAs []string `yaml:"lgas" json:"lgas"`
}

// CityAreas lists the areas of a city.
type CityAreas struct {
	City  string   `yaml:"city"`
	Areas []string `yaml:"areas"`
}

// AreaLandmarks lists the landmarks of an area.
type AreaLandmarks struct {
	Area      string   `yaml:"area"`
	Landmarks []string `yaml:"landmarks"`
}

// Match is a single search result. Parent is the containing state, city or area, it is empty for
// states.
type Match struct {
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

// Directory is the immutable location index. It is safe for concurrent use.
type Directory struct {
	States          []State         `yaml:"states"`
	AreasByCity     []CityAreas     `yaml:"areas_by_city"`
	LandmarksByArea []AreaLandmarks `yaml:"landmarks_by_area"`

	stateIdx    map[string]int
	cityIdx     map[string]int
	areaSet     map[string]struct{}
	landmarkIdx map[string]int
}

// Load parses a YAML dataset and builds the lookup indexes.
func Load(r io.Reader) (*Directory, error) {
	dir := new(Directory)
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(dir); err != nil {
		return nil, fmt.Errorf("failed to decode location directory: %w", err)
	}
	if err := dir.index(); err != nil {
		return nil, fmt.Errorf("invalid location directory: %w", err)
	}
	return dir, nil
}

// LoadFile reads a YAML dataset from the given file.
func LoadFile(path string) (*Directory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open location directory file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return Load(file)
}

func (d *Directory) index() error {
	if len(d.States) == 0 {
		return errors.New("no states defined")
	}
	d.stateIdx = make(map[string]int, len(d.States)*2)
	for i, state := range d.States {
		if strings.TrimSpace(state.Name) == "" || strings.TrimSpace(state.Code) == "" {
			return fmt.Errorf("state #%d is missing a name or code", i+1)
		}
		for _, key := range []string{key(state.Name), key(state.Code)} {
			if _, ok := d.stateIdx[key]; ok {
				return fmt.Errorf("duplicate state: %s", state.Name)
			}
			d.stateIdx[key] = i
		}
	}

	d.areaSet = make(map[string]struct{})
	d.cityIdx = make(map[string]int, len(d.AreasByCity))
	for i, city := range d.AreasByCity {
		if _, ok := d.cityIdx[key(city.City)]; ok {
			return fmt.Errorf("duplicate city: %s", city.City)
		}
		d.cityIdx[key(city.City)] = i
		for _, area := range city.Areas {
			d.areaSet[key(area)] = struct{}{}
		}
	}

	d.landmarkIdx = make(map[string]int, len(d.LandmarksByArea))
	for i, area := range d.LandmarksByArea {
		if _, ok := d.areaSet[key(area.Area)]; !ok {
			return fmt.Errorf("landmarks reference unknown area: %s", area.Area)
		}
		if _, ok := d.landmarkIdx[key(area.Area)]; ok {
			return fmt.Errorf("duplicate landmark area: %s", area.Area)
		}
		d.landmarkIdx[key(area.Area)] = i
	}
	return nil
}

// Search returns the entries whose name contains the query, ignoring case. Results are ordered
// states, LGAs, areas and landmarks in dataset order and capped at MaxResults. An empty query
// matches every entry. Whitespace in the query is significant.
func (d *Directory) Search(query string) []Match {
	query = strings.ToLower(query)
	matches := make([]Match, 0, MaxResults)
	add := func(kind Kind, name, parent string) bool {
		if strings.Contains(strings.ToLower(name), query) {
			matches = append(matches, Match{Kind: kind, Name: name, Parent: parent})
		}
		return len(matches) < MaxResults
	}

	for _, state := range d.States {
		if !add(KindState, state.Name, "") {
			return matches
		}
	}
	for _, state := range d.States {
		for _, lga := range state.LGAs {
			if !add(KindLGA, lga, state.Name) {
				return matches
			}
		}
	}
	for _, city := range d.AreasByCity {
		for _, area := range city.Areas {
			if !add(KindArea, area, city.City) {
				return matches
			}
		}
	}
	for _, area := range d.LandmarksByArea {
		for _, landmark := range area.Landmarks {
			if !add(KindLandmark, landmark, area.Area) {
				return matches
			}
		}
	}
	return matches
}

// StateNames returns the names of all states in order.
func (d *Directory) StateNames() []string {
	names := make([]string, 0, len(d.States))
	for _, state := range d.States {
		names = append(names, state.Name)
	}
	return names
}

// State looks up a state by name or code.
func (d *Directory) State(nameOrCode string) (State, bool) {
	idx, ok := d.stateIdx[key(nameOrCode)]
	if !ok {
		return State{}, false
	}
	return d.States[idx], true
}

// LGAs returns the LGAs of the state with the given name or code.
func (d *Directory) LGAs(state string) ([]string, bool) {
	st, ok := d.State(state)
	if !ok {
		return nil, false
	}
	return clone(st.LGAs), true
}

// Cities returns the names of all cities with known areas.
func (d *Directory) Cities() []string {
	cities := make([]string, 0, len(d.AreasByCity))
	for _, city := range d.AreasByCity {
		cities = append(cities, city.City)
	}
	return cities
}

// Areas returns the areas of the given city.
func (d *Directory) Areas(city string) ([]string, bool) {
	idx, ok := d.cityIdx[key(city)]
	if !ok {
		return nil, false
	}
	return clone(d.AreasByCity[idx].Areas), true
}

// Landmarks returns the landmarks of the given area. An area without landmarks yields an empty
// list.
func (d *Directory) Landmarks(area string) ([]string, bool) {
	if _, ok := d.areaSet[key(area)]; !ok {
		return nil, false
	}
	idx, ok := d.landmarkIdx[key(area)]
	if !ok {
		return []string{}, true
	}
	return clone(d.LandmarksByArea[idx].Landmarks), true
}

func key(val string) string {
	return strings.ToLower(strings.TrimSpace(val))
}

func clone(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}
