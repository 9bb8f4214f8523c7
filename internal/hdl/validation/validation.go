package validation

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func get() *validator.Validate {
	once.Do(
		func() {
			v = validator.New(validator.WithRequiredStructEnabled())
		},
	)
	return v
}

// ValidateStruct runs tag validation and flattens violations into plain
// per-field messages suitable for a 400 response body.
func ValidateStruct(s any) []string {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(
			out, fmt.Sprintf(
				"field %s violates %s rule", fe.Field(), fe.Tag(),
			),
		)
	}

	return out
}
