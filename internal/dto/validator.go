package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	registerOnce sync.Once
)

// IsValidEmail 只校验 a@b.c 的基本形态
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// RegisterValidators 向 gin 的校验器注册自定义规则，并使用 json 标签作为字段名
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("comment_email", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
	})
}

// FormatBindError 将绑定错误转换为对外提示，只返回第一个错误
func FormatBindError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch typeErr.Type.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be a string", field)
		case reflect.Ptr, reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
			return fmt.Sprintf("%s must be a number", field)
		default:
			return fmt.Sprintf("%s is invalid", field)
		}
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		first := errs[0]
		switch first.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", first.Field())
		case "comment_email":
			return "invalid email"
		case "oneof":
			return fmt.Sprintf("%s must be one of [%s]", first.Field(), first.Param())
		default:
			return fmt.Sprintf("%s is invalid", first.Field())
		}
	}

	return "invalid request body"
}
