package catalog

import (
	"errors"
	"strconv"

	"pokedex/internal/evolution"
)

// ErrNotFound is returned when no Pokémon matches an identifier.
var ErrNotFound = errors.New("pokemon not found")

// DefaultPageSize is the number of entries per catalog page.
const DefaultPageSize = 50

// Sprites holds the image references shown for an entry.
type Sprites struct {
	Front   string `json:"front,omitempty"`
	Back    string `json:"back,omitempty"`
	Artwork string `json:"artwork,omitempty"`
}

// Entry is one listed Pokémon: identity merged with its fetched detail.
type Entry struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Sprites Sprites  `json:"sprites"`
	Types   []string `json:"types"`
}

// PrimaryType is the first-slot type, or "" when none is known.
func (e Entry) PrimaryType() string {
	if len(e.Types) == 0 {
		return ""
	}
	return e.Types[0]
}

// Page is one assembled listing page.
type Page struct {
	Number  int     `json:"page"`
	Entries []Entry `json:"entries"`
	HasMore bool    `json:"has_more"`
}

type Ability struct {
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

type Stat struct {
	Name string `json:"name"`
	Base int    `json:"base"`
}

// Detail is everything the detail view renders.
type Detail struct {
	Entry
	BaseExperience int              `json:"base_experience"`
	Height         int              `json:"height"`
	Weight         int              `json:"weight"`
	Abilities      []Ability        `json:"abilities"`
	Stats          []Stat           `json:"stats"`
	Species        string           `json:"species"`
	EvolutionLines []evolution.Line `json:"evolution_lines"`
}

// Title is the heading used by the detail view, e.g. "pikachu#25".
func (d Detail) Title() string {
	return d.Name + "#" + strconv.Itoa(d.ID)
}
