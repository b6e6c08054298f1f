package rpc

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// BindParams unmarshals and validates method params into v.
func BindParams(params *json.RawMessage, v any) error {
	if params == nil {
		return ErrInvalidParams("params required")
	}
	if err := json.Unmarshal(*params, v); err != nil {
		return ErrInvalidParams("invalid params")
	}
	if err := validate.Struct(v); err != nil {
		return ErrInvalidParams("invalid params")
	}
	return nil
}
