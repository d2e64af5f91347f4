package httpx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Pokémon names are lowercase slugs ("mr-mime", "porygon-z") or numeric ids.
var pokemonNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("pokemon_name", validatePokemonName)
}

func validatePokemonName(fl validator.FieldLevel) bool {
	return pokemonNamePattern.MatchString(fl.Field().String())
}

// ValidateStruct returns one ErrorDetail per failed field, or nil.
func ValidateStruct(s interface{}) []ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ErrorDetail{{Message: err.Error()}}
	}

	var details []ErrorDetail
	for _, err := range validationErrs {
		field := err.Field()
		param := err.Param()

		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, param)
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", field, param)
		case "lte":
			message = fmt.Sprintf("%s must be at most %s", field, param)
		case "pokemon_name":
			message = fmt.Sprintf("%s must contain only lowercase letters, digits and hyphens", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		details = append(details, ErrorDetail{
			Field:   strings.ToLower(field[:1]) + field[1:],
			Message: message,
		})
	}

	return details
}
