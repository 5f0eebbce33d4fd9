package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput checks struct tags and reports failures as ErrInvalidInput.
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domainErrors.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: rule '%s'", fe.StructField(), rule))
	}
	return fmt.Errorf("%w: %s", domainErrors.ErrInvalidInput, strings.Join(msgs, "; "))
}
