package kit_test

import (
	"bytes"
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
	"github.com/xy-planning-network/querykit/kit"
	"github.com/xy-planning-network/querykit/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Product struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	SKU         string `gorm:"size:64;uniqueIndex"`
	Category    string
	Price       int
	Description string
}

// newMockDB connects GORM's MySQL dialector to a sqlmock database.
func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.Nil(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(
		mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}),
		&gorm.Config{Logger: gormlogger.Discard},
	)
	require.Nil(t, err)

	return database.NewDB(gdb), mock
}

// newPGDryRunDB connects GORM's PostgreSQL dialector to a sqlmock database
// in a session that builds SQL without running it.
func newPGDryRunDB(t *testing.T) *database.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.Nil(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: gormlogger.Discard})
	require.Nil(t, err)

	return dryRun(gdb)
}

// newDryRunKit constructs a Kit on the MySQL dialector that builds SQL without running it.
func newDryRunKit(t *testing.T, opts ...kit.OptFn) *kit.Kit {
	t.Helper()
	db, _ := newMockDB(t)
	k, err := kit.New(dryRun(db.DB()), new(Product), opts...)
	require.Nil(t, err)

	return k
}

func dryRun(gdb *gorm.DB) *database.DB {
	return database.NewDB(gdb.Session(&gorm.Session{DryRun: true}))
}

// toSQL builds the SELECT statement q would run.
func toSQL(t *testing.T, q *database.DB) (string, []any) {
	t.Helper()
	res := q.DB().Find(new([]Product))
	require.Nil(t, res.Error)

	return res.Statement.SQL.String(), res.Statement.Vars
}

func newBufferLogger() (logger.Logger, *bytes.Buffer) {
	color.NoColor = true
	b := new(bytes.Buffer)
	return logger.NewLogger(logger.WithLogger(log.New(b, "", 0))), b
}

func TestNew(t *testing.T) {
	// Arrange
	db, _ := newMockDB(t)

	// Act
	k, err := kit.New(nil, new(Product))

	// Assert
	require.ErrorIs(t, err, querykit.ErrMissingData)
	require.Nil(t, k)

	// Act
	k, err = kit.New(db, nil)

	// Assert
	require.ErrorIs(t, err, querykit.ErrMissingData)
	require.Nil(t, k)

	// Arrange
	notAModel := "products"

	// Act
	k, err = kit.New(db, &notAModel)

	// Assert
	require.ErrorIs(t, err, querykit.ErrNotValid)
	require.Nil(t, k)

	// Act
	k, err = kit.New(db, new(Product))

	// Assert
	require.Nil(t, err)
	require.Equal(t, "products", k.Table())
}

func TestColumns(t *testing.T) {
	// Arrange
	k := newDryRunKit(t)

	// Act
	cols, err := k.Columns()

	// Assert
	require.Nil(t, err)
	require.Equal(t, []string{"id", "name", "sku", "category", "price", "description"}, cols)

	// Arrange
	cols[0] = "mutated"

	// Act
	again, err := k.Columns()

	// Assert
	require.Nil(t, err)
	require.Equal(t, "id", again[0])
}

func TestExcludable(t *testing.T) {
	// Arrange
	k := newDryRunKit(t, kit.WithExcludable("description"))

	// Act
	actual := k.Excludable()

	// Assert
	require.Equal(t, []string{"description"}, actual)

	// Arrange
	actual[0] = "mutated"

	// Act
	k.SetExcludable("sku", "price")

	// Assert
	require.Equal(t, []string{"sku", "price"}, k.Excludable())

	// Act
	k.SetExcludable()

	// Assert
	require.Empty(t, k.Excludable())
}

func TestFilterable(t *testing.T) {
	// Arrange
	k := newDryRunKit(t)

	// Act + Assert
	require.Empty(t, k.Filterable())

	// Arrange
	f := kit.Filterable{"price": {Operator: ">="}}

	// Act
	k.SetFilterable(f)
	actual := k.Filterable()
	actual["sku"] = kit.Filter{}
	f["name"] = kit.Filter{}

	// Assert
	require.Equal(t, kit.Filterable{"price": {Operator: ">="}}, k.Filterable())

	// Act
	k.SetFilterable(nil)

	// Assert
	require.NotNil(t, k.Filterable())
	require.Empty(t, k.Filterable())
}

func TestSearchable(t *testing.T) {
	// Arrange
	k := newDryRunKit(t, kit.WithSearchable("name"))

	// Act
	actual := k.Searchable()
	actual[0] = "mutated"

	// Assert
	require.Equal(t, []string{"name"}, k.Searchable())

	// Act
	k.SetSearchable("name", "description")

	// Assert
	require.Equal(t, []string{"name", "description"}, k.Searchable())
}

func TestFilterableColumns(t *testing.T) {
	// Arrange + Act
	f := kit.FilterableColumns("category", "sku")

	// Assert
	require.Equal(t, kit.Filterable{"category": {}, "sku": {}}, f)
}

func TestClauseTypeValid(t *testing.T) {
	for _, c := range []kit.ClauseType{
		kit.ClauseWhere,
		kit.ClauseOrWhere,
		kit.ClauseWhereNot,
		kit.ClauseWhereIn,
		kit.ClauseWhereNotIn,
		kit.ClauseWhereNull,
		kit.ClauseWhereNotNull,
	} {
		require.Nil(t, c.Valid(), c.String())
	}

	require.ErrorIs(t, kit.ClauseType("whereBetween").Valid(), querykit.ErrNotValid)
	require.ErrorIs(t, kit.ClauseType("").Valid(), querykit.ErrNotValid)
}

func TestSearchModeValid(t *testing.T) {
	require.Nil(t, kit.SearchNatural.Valid())
	require.Nil(t, kit.SearchBoolean.Valid())
	require.Nil(t, kit.SearchExpansion.Valid())
	require.ErrorIs(t, kit.SearchMode("fuzzy").Valid(), querykit.ErrNotValid)
}
