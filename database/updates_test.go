package database_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
	"gorm.io/datatypes"
)

type shade string

func (s shade) String() string { return string(s) }

func (s shade) Valid() error {
	if s == "light" || s == "dark" {
		return nil
	}

	return querykit.ErrNotValid
}

func TestUpdatesStripNils(t *testing.T) {
	// Arrange
	var name *string
	price := 10
	u := database.Updates{
		"category":    "tools",
		"name":        name,
		"price":       &price,
		"sku":         nil,
		"meta":        datatypes.JSON(`null`),
		"attrs":       datatypes.JSON(`{"a":1}`),
		"description": sql.NullString{},
		"label":       sql.NullString{String: "x", Valid: true},
		"shade":       shade("neon"),
		"tint":        shade("dark"),
	}

	// Act
	u.StripNils()

	// Assert
	require.Equal(t, database.Updates{
		"category": "tools",
		"price":    &price,
		"attrs":    datatypes.JSON(`{"a":1}`),
		"label":    sql.NullString{String: "x", Valid: true},
		"tint":     shade("dark"),
	}, u)
}
