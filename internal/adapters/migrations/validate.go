package migrations

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/trebuchet-org/facet-cli/internal/domain"
)

// planValidate is the validator for plan files, with the selector,
// pauseregion and uint256 tags registered.
var planValidate *validator.Validate

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func init() {
	planValidate = validator.New()
	planValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = planValidate.RegisterValidation("selector", validateSelector)
	_ = planValidate.RegisterValidation("pauseregion", validatePauseRegion)
	_ = planValidate.RegisterValidation("uint256", validateUint256)
}

func validateSelector(fl validator.FieldLevel) bool {
	_, err := domain.ParseSelector(fl.Field().String())
	return err == nil
}

func validatePauseRegion(fl validator.FieldLevel) bool {
	_, err := domain.ParsePauseRegion(fl.Field().String())
	return err == nil
}

func validateUint256(fl validator.FieldLevel) bool {
	_, err := parseUint256(fl.Field().String())
	return err == nil
}

// parseUint256 accepts decimal or 0x-prefixed hex.
func parseUint256(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if v.Sign() < 0 || v.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("integer %q out of uint256 range", s)
	}
	return v, nil
}

// validate runs the struct validator and flattens field errors into one
// readable error.
func validate(file string, v any) error {
	err := planValidate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%s: %w", file, err)
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fieldMessage(fe)
	}
	return fmt.Errorf("%w: %s: %s", domain.ErrInvalidPlan, file, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "selector":
		return fmt.Sprintf("%s: %q is not a 4-byte selector", field, fe.Value())
	case "pauseregion":
		return fmt.Sprintf("%s: unknown pause region %q", field, fe.Value())
	case "uint256":
		return fmt.Sprintf("%s: %q is not a uint256", field, fe.Value())
	case "eth_addr":
		return fmt.Sprintf("%s: %q is not an address", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
