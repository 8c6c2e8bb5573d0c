package cells

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/marquee/internal/models"
)

// Validate checks a cell before it is persisted.
func Validate(c models.Cell) error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&c.Order, validation.NotNil, validation.Min(0)),
	)
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}
