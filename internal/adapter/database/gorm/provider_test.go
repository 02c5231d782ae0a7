package gorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlib "gorm.io/gorm"

	dbconfig "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/config"
)

func TestDialectorRegistry(t *testing.T) {
	RegisterDialector("fake", func(cfg dbconfig.DatabaseConfig) (gormlib.Dialector, error) {
		return nil, nil
	})

	factory, err := GetDialectorFactory("fake")
	require.NoError(t, err)
	assert.NotNil(t, factory)

	_, err = GetDialectorFactory("unregistered")
	assert.Error(t, err)
}
