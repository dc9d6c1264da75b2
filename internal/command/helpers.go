package command

import (
	"strings"

	"github.com/gofrs/uuid/v5"
)

func lower(entity string) string { return strings.ToLower(entity) }

func ptr[T any](v T) *T { return &v }

func sameID(a, b *uuid.UUID) bool {
	switch {
	case a == nil || b == nil:
		return a == b
	default:
		return *a == *b
	}
}

func sameInt(a, b *int) bool {
	switch {
	case a == nil || b == nil:
		return a == b
	default:
		return *a == *b
	}
}
