package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	validator "gopkg.in/go-playground/validator.v9"
)

// Validatable should be implemented by config structs that want to provide
// validation beyond the struct tags.
type Validatable interface {
	Validate() error
}

// ValidateStruct uses the `validate` struct tags to do standard validation
// and then calls Validate if confStruct implements Validatable.
func ValidateStruct(confStruct interface{}) error {
	validate := validator.New()
	if err := validate.Struct(confStruct); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok {
			var msgs []string
			for _, e := range ves {
				msgs = append(msgs, fmt.Sprintf("Validation error in field '%s': %s", e.Namespace(), e.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if v, ok := confStruct.(Validatable); ok {
		return v.Validate()
	}
	return nil
}
