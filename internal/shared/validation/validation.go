package validation

import (
	"errors"
	"math"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// rentalRate accepts a plausible daily rate: positive, at most 10000, and
// no sub-cent precision.
func rentalRate(fl validator.FieldLevel) bool {
	rate := fl.Field().Float()
	if rate <= 0 || rate > 10000 {
		return false
	}
	cents := rate * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

// Register installs custom validators on gin's binding engine. Call once at
// startup before routes are served.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator engine is not *validator.Validate")
	}
	return v.RegisterValidation("rentalrate", rentalRate)
}
