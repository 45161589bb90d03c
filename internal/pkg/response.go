package pkg

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/meethalfway/meethalfway/internal/domain"
)

// Response is the JSON envelope of every API reply. Errors is set only when
// request validation failed and maps a JSON field name to the rule it broke.
type Response struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    any               `json:"data"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func send(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Code: status, Message: message, Data: data})
}

// Success replies 200 with data.
func Success(c *gin.Context, data any) {
	send(c, http.StatusOK, "success", data)
}

// Created replies 201 with data.
func Created(c *gin.Context, data any) {
	send(c, http.StatusCreated, "created", data)
}

// Error replies with the status mapped from err and its public message.
func Error(c *gin.Context, err error) {
	send(c, domain.HTTPStatusCode(err), PublicMessage(err), nil)
}

// PublicMessage returns the part of err that is safe to show to a client.
// Errors that are not a *domain.AppError, and internal AppErrors, collapse to
// a generic message.
func PublicMessage(err error) string {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code == domain.CodeInternal {
		return "internal error"
	}
	return appErr.Message
}

// FormMessage is PublicMessage written as a sentence for an HTML form.
func FormMessage(err error) string {
	msg := PublicMessage(err)
	if msg == "" {
		return msg
	}
	r, size := utf8.DecodeRuneInString(msg)
	msg = string(unicode.ToUpper(r)) + msg[size:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}

// BindAndValidate binds the request into obj. On failure it replies 400 and
// returns false, so handlers can simply return:
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	err := c.ShouldBind(obj)
	if err == nil {
		return true
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		send(c, http.StatusBadRequest, err.Error(), nil)
		return false
	}

	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fieldName(t, fe.StructField())] = rule
	}

	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  fields,
	})
	return false
}

// fieldName is the JSON name of the struct field, or its lowercased Go name
// when it has none.
func fieldName(t reflect.Type, field string) string {
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(field); ok {
			if name := jsonName(f.Tag.Get("json")); name != "" {
				return name
			}
		}
	}
	return strings.ToLower(field)
}

func jsonName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
