package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockDBReplacesSingleton(t *testing.T) {
	gormDB, mock := GetMockDB()

	assert.Same(t, gormDB, GetDb())
	assert.Equal(t, "postgres", gormDB.Name())
	assert.NoError(t, mock.ExpectationsWereMet())
}
