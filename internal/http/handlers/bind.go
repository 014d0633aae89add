package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

var registerOnce sync.Once

// RegisterValidators teaches gin's validator the domain tags and makes field
// errors report JSON names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(sf reflect.StructField) string {
			name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return sf.Name
			}
			return name
		})

		_ = v.RegisterValidation("account_type", func(fl validator.FieldLevel) bool {
			_, err := account.ParseType(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
			return account.ValidCurrency(fl.Field().String())
		})
		_ = v.RegisterValidation("role_name", func(fl validator.FieldLevel) bool {
			return role.Role(fl.Field().String()).Valid()
		})
	})
}

func BindJSON(ctx *gin.Context, out interface{}) bool {
	RegisterValidators()

	if err := ctx.ShouldBindJSON(out); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "body_too_large", "Request body too large", nil)
			return false
		}
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err))
		return false
	}

	return true
}

func bindErrorDetails(err error) interface{} {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, FieldError{
				Field:   jsonPath(fe.Namespace()),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			}},
		}
	}

	// decimal.Decimal reports malformed numbers with its own error type
	if strings.Contains(err.Error(), "decimal") {
		return gin.H{"json": "invalid_number"}
	}

	return gin.H{"reason": err.Error()}
}

// jsonPath drops the root struct name from a validator namespace, which is
// already made of JSON names thanks to the tag name func.
func jsonPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "account_type":
		return "must be one of Savings, Checking, Credit, Investment"
	case "currency":
		return "must be a three-letter upper-case ISO code"
	case "role_name":
		return "must be one of ROLE_USER, ROLE_CLIENT, ROLE_ADMIN"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
