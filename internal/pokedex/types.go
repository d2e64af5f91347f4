// Package pokedex holds presentation data shared by the front ends.
package pokedex

import "strings"

// TypeMeta is the display colour and symbol for an elemental type.
type TypeMeta struct {
	Color string
	Emoji string
}

// Unknown is returned for types missing from the table.
var Unknown = TypeMeta{Color: "#68A090", Emoji: "❔"}

var typeMeta = map[string]TypeMeta{
	"fire":     {Color: "#F08030", Emoji: "🔥"},
	"water":    {Color: "#6890F0", Emoji: "💧"},
	"grass":    {Color: "#78C850", Emoji: "🌿"},
	"electric": {Color: "#F8D030", Emoji: "⚡"},
	"ice":      {Color: "#98D8D8", Emoji: "❄️"},
	"fighting": {Color: "#C03028", Emoji: "🥊"},
	"poison":   {Color: "#A040A0", Emoji: "☠️"},
	"ground":   {Color: "#E0C068", Emoji: "🌍"},
	"flying":   {Color: "#A890F0", Emoji: "🕊️"},
	"psychic":  {Color: "#F85888", Emoji: "🧠"},
	"bug":      {Color: "#A8B820", Emoji: "🐛"},
	"rock":     {Color: "#B8A038", Emoji: "🪨"},
	"ghost":    {Color: "#705898", Emoji: "👻"},
	"dark":     {Color: "#705848", Emoji: "🌑"},
	"dragon":   {Color: "#7038F8", Emoji: "🐉"},
	"steel":    {Color: "#B8B8D0", Emoji: "⚙️"},
	"fairy":    {Color: "#EE99AC", Emoji: "🧚"},
	"normal":   {Color: "#A8A878", Emoji: "⚪"},
}

// Meta looks up a type name case-insensitively.
func Meta(typeName string) TypeMeta {
	if m, ok := typeMeta[strings.ToLower(typeName)]; ok {
		return m
	}
	return Unknown
}

// Label renders a type as "🔥 fire".
func Label(typeName string) string {
	return Meta(typeName).Emoji + " " + typeName
}
