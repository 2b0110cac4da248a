package middleware

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// TaskCodeValidator reports whether a path value is a well formed task code
type TaskCodeValidator func(string) bool

// InitValidator registers the custom tags on gin's binding validator:
// taskcode for task code path parameters. Field errors carry JSON names.
func InitValidator(isTaskCode TaskCodeValidator) {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_ = v.RegisterValidation("taskcode", func(fl validator.FieldLevel) bool {
			return isTaskCode(fl.Field().String())
		})

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "uri"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
}
