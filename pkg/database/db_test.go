package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "postgres://*****:*****@db:5432/shop?sslmode=disable",
		maskDSN("postgres://app:s3cret@db:5432/shop?sslmode=disable"))
	assert.Equal(t, "postgres://db:5432/shop", maskDSN("postgres://db:5432/shop"))
}

func TestWithScheme(t *testing.T) {
	assert.Equal(t, "postgres://u:p@h:5432/db", WithScheme("u:p@h:5432/db"))
	assert.Equal(t, "postgresql://u:p@h/db", WithScheme("postgresql://u:p@h/db"))
}
