package service

import (
	"errors"

	"invoicing/pkg/apperr"

	"gorm.io/gorm"
)

// repoError translates storage failures into the error taxonomy: a missing
// row becomes NotFound for the named resource, anything else is a transport
// failure of the given operation.
func repoError(op, resource string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NewNotFound(resource, err)
	}
	return apperr.NewTransport(op, err)
}
