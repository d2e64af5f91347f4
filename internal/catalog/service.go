package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"pokedex/internal/evolution"
	"pokedex/internal/platform/pokeapi"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=service.go -destination=mock_source_test.go -package=catalog

// Source is the part of the PokeAPI client the catalog reads from.
type Source interface {
	ListPokemon(ctx context.Context, limit, offset int) (*pokeapi.NamedResourceList, error)
	GetPokemon(ctx context.Context, nameOrURL string) (*pokeapi.Pokemon, error)
	GetSpecies(ctx context.Context, nameOrURL string) (*pokeapi.Species, error)
	GetEvolutionChain(ctx context.Context, idOrURL string) (*pokeapi.EvolutionChain, error)
}

type Config struct {
	PageSize int
	// DetailConcurrency caps parallel detail requests per page; 0 means no cap.
	DetailConcurrency int
}

type Service struct {
	src    Source
	cfg    Config
	logger *zap.Logger
}

func NewService(src Source, cfg Config, logger *zap.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{src: src, cfg: cfg, logger: logger}
}

func (s *Service) PageSize() int {
	return s.cfg.PageSize
}

// FetchPage lists one page of identifiers and fetches every detail
// concurrently. The page fails as a whole if any detail fails; entries keep
// the listing order.
func (s *Service) FetchPage(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		return Page{}, fmt.Errorf("invalid page %d", page)
	}
	offset := (page - 1) * s.cfg.PageSize

	list, err := s.src.ListPokemon(ctx, s.cfg.PageSize, offset)
	if err != nil {
		return Page{}, fmt.Errorf("list page %d: %w", page, err)
	}

	entries := make([]Entry, len(list.Results))
	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.DetailConcurrency > 0 {
		g.SetLimit(s.cfg.DetailConcurrency)
	}
	for i, item := range list.Results {
		g.Go(func() error {
			p, err := s.src.GetPokemon(gctx, ref(item))
			if err != nil {
				return fmt.Errorf("fetch %s: %w", item.Name, err)
			}
			entries[i] = toEntry(item.Name, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Page{}, fmt.Errorf("page %d: %w", page, err)
	}

	return Page{Number: page, Entries: entries, HasMore: list.HasNext()}, nil
}

// FetchEntry looks up a single Pokémon by name or id.
func (s *Service) FetchEntry(ctx context.Context, name string) (Entry, error) {
	p, err := s.src.GetPokemon(ctx, name)
	if err != nil {
		return Entry{}, translate(name, err)
	}
	return toEntry(p.Name, p), nil
}

// GetDetail returns the full detail for name. A failed evolution lookup is
// logged and leaves EvolutionLines empty.
func (s *Service) GetDetail(ctx context.Context, name string) (Detail, error) {
	p, err := s.src.GetPokemon(ctx, name)
	if err != nil {
		return Detail{}, translate(name, err)
	}

	d := Detail{
		Entry:          toEntry(p.Name, p),
		BaseExperience: p.BaseExperience,
		Height:         p.Height,
		Weight:         p.Weight,
		Species:        p.Species.Name,
	}
	for _, a := range p.Abilities {
		d.Abilities = append(d.Abilities, Ability{Name: a.Ability.Name, Hidden: a.IsHidden})
	}
	for _, st := range p.Stats {
		d.Stats = append(d.Stats, Stat{Name: st.Stat.Name, Base: st.BaseStat})
	}

	speciesRef := ref(p.Species)
	if speciesRef == "" {
		speciesRef = p.Name
	}
	lines, err := s.evolutionLines(ctx, speciesRef)
	if err != nil {
		if ctx.Err() != nil {
			return Detail{}, ctx.Err()
		}
		s.logger.Warn("evolution lookup failed", zap.String("pokemon", p.Name), zap.Error(err))
	}
	d.EvolutionLines = lines
	return d, nil
}

// EvolutionLines returns every evolution line of the species name belongs to.
func (s *Service) EvolutionLines(ctx context.Context, species string) ([]evolution.Line, error) {
	lines, err := s.evolutionLines(ctx, species)
	if err != nil {
		return nil, translate(species, err)
	}
	return lines, nil
}

func (s *Service) evolutionLines(ctx context.Context, speciesRef string) ([]evolution.Line, error) {
	sp, err := s.src.GetSpecies(ctx, speciesRef)
	if err != nil {
		return nil, err
	}
	if sp.EvolutionChain.URL == "" {
		return []evolution.Line{{sp.Name}}, nil
	}
	chain, err := s.src.GetEvolutionChain(ctx, sp.EvolutionChain.URL)
	if err != nil {
		return nil, err
	}
	return evolution.BuildLines(evolution.FromChain(chain.Chain)), nil
}

func translate(name string, err error) error {
	if errors.Is(err, pokeapi.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}

func ref(r pokeapi.NamedResource) string {
	if r.URL != "" {
		return r.URL
	}
	return r.Name
}

func toEntry(name string, p *pokeapi.Pokemon) Entry {
	types := slices.Clone(p.Types)
	slices.SortStableFunc(types, func(a, b pokeapi.PokemonType) int {
		return cmp.Compare(a.Slot, b.Slot)
	})

	e := Entry{
		ID:   p.ID,
		Name: name,
		Sprites: Sprites{
			Front:   p.Sprites.FrontDefault,
			Back:    p.Sprites.BackDefault,
			Artwork: p.Sprites.Other.OfficialArtwork.FrontDefault,
		},
		Types: make([]string, 0, len(types)),
	}
	for _, t := range types {
		e.Types = append(e.Types, t.Type.Name)
	}
	return e
}
