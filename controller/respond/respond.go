// Package respond turns service errors and binding failures into JSON
// responses.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"taskmanager/apperror"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Status maps an error kind to its HTTP status.
func Status(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusUnprocessableEntity
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperror.KindForbidden, apperror.KindInvalidState:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Error writes err and aborts the request.
func Error(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	body := gin.H{"error": appErr.Message}
	if appErr.Kind == apperror.KindValidation {
		body["errors"] = appErr.Fields
	}
	c.AbortWithStatusJSON(Status(appErr.Kind), body)
}

// BindJSON decodes and validates the body into obj. An empty body is
// validated as {}. On failure the 422 response is already written.
func BindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err != nil {
		Error(c, BindingError(err, "body"))
		return false
	}
	return true
}

// BindQuery decodes and validates the query string into obj.
func BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		Error(c, BindingError(err, "query"))
		return false
	}
	return true
}

// BindingError converts a gin binding failure into a validation error. Errors
// that cannot be attributed to a field are reported under fallback.
func BindingError(err error, fallback string) *apperror.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := map[string][]string{}
		for _, fe := range verrs {
			name := fe.Field()
			fields[name] = append(fields[name], Message(fe))
		}
		return apperror.Validation(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		name := typeErr.Field
		return apperror.FieldError(name, fmt.Sprintf("The %s field is invalid.", humanize(name)))
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return apperror.FieldError(fallback, fmt.Sprintf("The %s contains a non-numeric value.", fallback))
	}
	return apperror.FieldError(fallback, fmt.Sprintf("The %s is malformed.", fallback))
}

// Message renders one failed rule the way clients of this API expect.
func Message(fe validator.FieldError) string {
	name := humanize(fe.Field())
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("The %s field is required.", name)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", name)
	case "max":
		if isString {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
