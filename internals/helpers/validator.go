package helper

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// ValidateStruct jalankan validator.v10 atas DTO (tag `validate:"..."`)
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
