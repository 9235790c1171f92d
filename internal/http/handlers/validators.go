package handlers

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-closet-backend/internal/outfit"
)

var registerOnce sync.Once

// registerValidators installs the closet's binding rules on gin's validator:
//
//	occasion  accepts casual, formal, playa and their aliases
//	weather   accepts frio, templado, calido and their aliases
//
// It also makes validation errors carry JSON field names. Gin always uses
// go-playground/validator, so a different engine is a programming error.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("handlers: gin binding engine is not go-playground/validator")
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		must(v.RegisterValidation("occasion", func(fl validator.FieldLevel) bool {
			_, ok := outfit.ParseOccasion(fl.Field().String())
			return ok
		}))
		must(v.RegisterValidation("weather", func(fl validator.FieldLevel) bool {
			_, ok := outfit.ParseWeather(fl.Field().String())
			return ok
		}))
	})
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
