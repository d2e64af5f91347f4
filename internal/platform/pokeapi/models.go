package pokeapi

// NamedResource is the {name, url} pair PokeAPI uses for every reference.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// NamedResourceList matches the paginated /pokemon listing.
type NamedResourceList struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// HasNext reports whether the upstream listing has a further page.
func (l *NamedResourceList) HasNext() bool {
	return l != nil && l.Next != nil && *l.Next != ""
}

// Pokemon matches pokemon/{name}. Null sprite URLs decode to "".
type Pokemon struct {
	ID             int              `json:"id"`
	Name           string           `json:"name"`
	BaseExperience int              `json:"base_experience"`
	Height         int              `json:"height"`
	Weight         int              `json:"weight"`
	IsDefault      bool             `json:"is_default"`
	Order          int              `json:"order"`
	Sprites        Sprites          `json:"sprites"`
	Types          []PokemonType    `json:"types"`
	Abilities      []PokemonAbility `json:"abilities"`
	Stats          []PokemonStat    `json:"stats"`
	Species        NamedResource    `json:"species"`
}

type Sprites struct {
	FrontDefault string `json:"front_default"`
	BackDefault  string `json:"back_default"`
	FrontShiny   string `json:"front_shiny"`
	BackShiny    string `json:"back_shiny"`
	Other        struct {
		OfficialArtwork struct {
			FrontDefault string `json:"front_default"`
			FrontShiny   string `json:"front_shiny"`
		} `json:"official-artwork"`
	} `json:"other"`
}

type PokemonType struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

type PokemonAbility struct {
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
	Ability  NamedResource `json:"ability"`
}

type PokemonStat struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// Species matches pokemon-species/{name}; only the evolution reference is used.
type Species struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	EvolutionChain struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
}

// EvolutionChain matches evolution-chain/{id}.
type EvolutionChain struct {
	ID    int       `json:"id"`
	Chain ChainLink `json:"chain"`
}

// ChainLink is one node of the evolution tree.
type ChainLink struct {
	Species   NamedResource `json:"species"`
	EvolvesTo []ChainLink   `json:"evolves_to"`
}
