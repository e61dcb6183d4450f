package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-auth-api/model"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateAndDecode decodes the JSON body into payload and runs its
// validate tags.
func ValidateAndDecode(r *http.Request, payload interface{}) *AppError {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		return NewAppError(http.StatusBadRequest, model.CodeRequestInvalid, "Invalid request body", nil)
	}

	if err := validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewAppError(http.StatusBadRequest, model.CodeRequestInvalid, validationErrors.Error(), nil)
		}
		return NewAppError(http.StatusBadRequest, model.CodeRequestInvalid, "Invalid request body", nil)
	}

	return nil
}
