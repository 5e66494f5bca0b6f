package common

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/tendant/dental-idm/pkg/errors"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    errors.ErrorCode       `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WriteError renders err as an ErrorResponse. Coded errors keep their
// message; anything else becomes a generic 500 and is only logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := errors.MapErrorCodeToHTTPStatus(code)

	resp := ErrorResponse{Code: code}
	var coded *errors.Error
	switch {
	case status == http.StatusInternalServerError:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Message = "An internal error occurred"
	case stderrors.As(err, &coded):
		resp.Message = coded.Message
		resp.Details = coded.Details
	default:
		resp.Message = err.Error()
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

// WriteErrorWith renders err with extra detail fields merged into the body
func WriteErrorWith(w http.ResponseWriter, r *http.Request, err error, details map[string]interface{}) {
	code := errors.GetCode(err)
	var coded *errors.Error
	if !stderrors.As(err, &coded) || errors.MapErrorCodeToHTTPStatus(code) == http.StatusInternalServerError {
		WriteError(w, r, err)
		return
	}
	merged := make(map[string]interface{}, len(coded.Details)+len(details))
	for k, v := range coded.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	render.Status(r, errors.MapErrorCodeToHTTPStatus(code))
	render.JSON(w, r, ErrorResponse{Code: code, Message: coded.Message, Details: merged})
}

// WriteJSON renders v with status
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// DecodeJSON decodes the request body into v and runs its validate tags
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New(errors.ErrCodeValidationFailed, "invalid request body")
	}
	return ValidateStruct(v)
}

// ValidateStruct runs validate tags on v, reporting each failing field
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(err, errors.ErrCodeValidationFailed, "invalid request")
	}

	details := make(map[string]interface{}, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		reason := describe(fe)
		details[field] = reason
		msgs = append(msgs, field+" "+reason)
	}
	return errors.New(errors.ErrCodeValidationFailed, strings.Join(msgs, "; ")).WithDetails(details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
