package shared

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/form"
	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var (
	Decoder  = newDecoder()
	Validate = newValidator()
)

func newDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("query")
	d.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
			return time.Time{}, nil
		}
		return time.Parse(DateLayout, strings.TrimSpace(vals[0]))
	}, time.Time{})
	return d
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
