package utils

import (
	uuid "github.com/satori/go.uuid"
	"github.com/segmentio/ksuid"
)

func UUID() string {
	return uuid.NewV4().String()
}

func IsValidUUID(id string) bool {
	_, err := uuid.FromString(id)
	return err == nil
}

// KSUID returns a sortable unique id.
func KSUID() string {
	return ksuid.New().String()
}
