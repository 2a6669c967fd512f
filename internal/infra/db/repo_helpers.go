package db

import (
	"errors"

	"github.com/google/uuid"
)

var errDBUnavailable = errors.New("db unavailable")

func newUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
