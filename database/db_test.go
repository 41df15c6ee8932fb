package database_test

import (
	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
	"gorm.io/gorm"
)

func (suite *DBTestSuite) TestCount() {
	// Arrange + Act
	count, err := suite.db.Count()

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrUnexpected)
	suite.Require().Zero(count)

	// Arrange
	_ = insertProducts(suite.T(), suite.db)

	// Act
	count, err = suite.db.Model(new(Product)).Count()

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(5), count)

	// Arrange + Act
	count, err = suite.db.Model(new(Product)).Where("id = ?", 1, 2).Count()

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotValid)
	suite.Require().Zero(count)
}

func (suite *DBTestSuite) TestCommit() {
	// Arrange
	tx := suite.db.Begin()
	product := Product{Name: "commit", SKU: "commit-1"}
	suite.Require().Nil(tx.Create(&product))
	suite.Require().NotZero(product.ID)

	var actual Product

	// Act
	err := tx.Commit()

	// Assert
	suite.Require().Nil(err)
	suite.Require().Nil(suite.db.Where("id = ?", product.ID).First(&actual))
	suite.Require().Equal("commit", actual.Name)
}

func (suite *DBTestSuite) TestRollback() {
	// Arrange
	tx := suite.db.Begin()
	product := Product{Name: "rollback", SKU: "rollback-1"}
	suite.Require().Nil(tx.Create(&product))

	// Act
	err := tx.Rollback()

	// Assert
	suite.Require().Nil(err)
	suite.Require().ErrorIs(
		suite.db.Where("sku = ?", "rollback-1").First(new(Product)),
		querykit.ErrNotFound,
	)
}

func (suite *DBTestSuite) TestCreate() {
	// Arrange
	db := database.NewDB(suite.db.DB().Session(&gorm.Session{NewDB: true}))
	db.DB().Error = testErr

	// Act
	err := db.Create(nil)

	// Assert
	suite.Require().ErrorIs(err, testErr)

	// Arrange
	first := Product{Name: "tape", SKU: "d-1"}

	// Act
	err = suite.db.Create(&first)

	// Assert
	suite.Require().Nil(err)
	suite.Require().NotZero(first.ID)
	suite.Require().NotZero(first.CreatedAt)

	// Arrange
	dupe := Product{Name: "more tape", SKU: "d-1"}

	// Act
	err = suite.db.Create(&dupe)

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrExists)

	// Arrange + Act
	err = suite.db.Model(new(Product)).Create(database.Updates{})

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrMissingData)

	// Arrange
	updates := database.Updates{"name": "putty", "sku": "d-2"}

	// Act
	err = suite.db.Model(new(Product)).Create(updates)

	// Assert
	suite.Require().Nil(err)

	count, err := suite.db.Model(new(Product)).Count()
	suite.Require().Nil(err)
	suite.Require().Equal(int64(2), count)
}

func (suite *DBTestSuite) TestDelete() {
	// Arrange
	db := database.NewDB(suite.db.DB().Session(&gorm.Session{NewDB: true}))
	db.DB().Error = testErr

	// Act
	err := db.Delete(nil)

	// Assert
	suite.Require().ErrorIs(err, testErr)

	// Arrange
	products := insertProducts(suite.T(), suite.db)

	// Act
	err = suite.db.Delete(&products[0])

	// Assert
	suite.Require().Nil(err)
	suite.Require().ErrorIs(
		suite.db.Where("id = ?", products[0].ID).First(new(Product)),
		querykit.ErrNotFound,
	)

	var archived Product
	suite.Require().Nil(suite.db.Unscoped().Where("id = ?", products[0].ID).First(&archived))
	suite.Require().True(archived.IsDeleted())

	// Arrange + Act
	err = suite.db.Delete(&products[0])

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotFound)
}

func (suite *DBTestSuite) TestExec() {
	// Arrange
	db := database.NewDB(suite.db.DB().Session(&gorm.Session{NewDB: true}))
	db.DB().Error = testErr

	// Act
	err := db.Exec("")

	// Assert
	suite.Require().ErrorIs(err, testErr)

	// Arrange
	products := insertProducts(suite.T(), suite.db)
	q := "UPDATE products SET name = 'exec-test' WHERE id = ?"

	// Act
	err = suite.db.Exec(q, products[0].ID)

	// Assert
	suite.Require().Nil(err)

	var actual Product
	suite.Require().Nil(suite.db.Where("id = ?", products[0].ID).First(&actual))
	suite.Require().Equal("exec-test", actual.Name)

	// Arrange + Act
	err = suite.db.Exec(q, 0)

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotFound)

	// Arrange
	q = "UPDATE products SET fake_column = 'exec-test' WHERE id = ?"

	// Act
	err = suite.db.Exec(q, products[0].ID)

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotValid)
}

func (suite *DBTestSuite) TestExists() {
	// Arrange
	products := insertProducts(suite.T(), suite.db)

	// Act
	actual, err := suite.db.Model(new(Product)).Where("id = ?", products[0].ID).Exists()

	// Assert
	suite.Require().Nil(err)
	suite.Require().True(actual)

	// Act
	actual, err = suite.db.Model(new(Product)).Where("sku = ?", "nope").Exists()

	// Assert
	suite.Require().Nil(err)
	suite.Require().False(actual)
}

func (suite *DBTestSuite) TestFind() {
	// Arrange
	var actual []Product

	// Act
	err := suite.db.Find(&actual)

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotFound)

	// Arrange
	_ = insertProducts(suite.T(), suite.db)

	// Act
	err = suite.db.Where("category = ?", "tools").Order("sku").Find(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(actual, 2)
	suite.Require().Equal("hammer", actual[0].Name)
	suite.Require().Equal("wrench", actual[1].Name)

	// Arrange
	actual = nil

	// Act
	err = suite.db.Where("category = ?", "tools").Or("category = ?", "adhesives").Find(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(actual, 3)

	// Arrange
	actual = nil

	// Act
	err = suite.db.Not("category = ?", "tools").Find(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(actual, 3)
}

func (suite *DBTestSuite) TestFirst() {
	// Arrange
	var actual Product

	// Act
	err := suite.db.Where("sku = ?", "nope").First(&actual)

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotFound)

	// Arrange
	products := insertProducts(suite.T(), suite.db)

	// Act
	err = suite.db.Where("sku = ?", products[2].SKU).First(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(products[2].ID, actual.ID)
}

func (suite *DBTestSuite) TestLimitOffset() {
	// Arrange
	_ = insertProducts(suite.T(), suite.db)

	var actual []Product

	// Act
	err := suite.db.Order("sku").Limit(2).Offset(1).Find(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(actual, 2)
	suite.Require().Equal("a-2", actual[0].SKU)

	// Act
	err = suite.db.Limit(-1).Find(&actual)

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotValid)

	// Act
	err = suite.db.Offset(-1).Find(&actual)

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotValid)
}

func (suite *DBTestSuite) TestPaged() {
	// Arrange
	_ = insertProducts(suite.T(), suite.db)

	// Act
	pd, err := suite.db.Model(new(Product)).Order("sku").Paged(2, 2)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(2), pd.Page)
	suite.Require().Equal(int64(2), pd.PerPage)
	suite.Require().Equal(int64(5), pd.TotalItems)
	suite.Require().Equal(int64(3), pd.TotalPages)

	items, ok := pd.Items.(*[]Product)
	suite.Require().True(ok)
	suite.Require().Len(*items, 2)
	suite.Require().Equal("b-1", (*items)[0].SKU)

	// Act
	_, err = suite.db.Paged(1, 1)

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrUnaddressable)
}

func (suite *DBTestSuite) TestPluck() {
	// Arrange
	_ = insertProducts(suite.T(), suite.db)

	var skus []string

	// Act
	err := suite.db.Model(new(Product)).Where("category = ?", "hardware").Order("sku").Pluck("sku", &skus)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal([]string{"b-1", "b-2"}, skus)
}

func (suite *DBTestSuite) TestRaw() {
	// Arrange
	_ = insertProducts(suite.T(), suite.db)

	var total int64

	// Act
	err := suite.db.Raw(&total, "SELECT SUM(price) FROM products WHERE category = ?", "tools")

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(22), total)
}

func (suite *DBTestSuite) TestScope() {
	// Arrange
	_ = insertProducts(suite.T(), suite.db)

	cheap := func(db *database.DB) *database.DB { return db.Where("price < ?", 5) }

	var actual []Product

	// Act
	err := suite.db.Model(new(Product)).Scope(cheap).Find(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(actual, 2)

	// Arrange
	broken := func(db *database.DB) *database.DB { return db.AddError(querykit.ErrMissingData) }

	// Act
	err = suite.db.Model(new(Product)).Scope(broken).Find(&actual)

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrMissingData)
}

func (suite *DBTestSuite) TestUpdate() {
	// Arrange
	products := insertProducts(suite.T(), suite.db)

	// Act
	err := suite.db.Model(new(Product)).Where("id = ?", products[0].ID).Update(database.Updates{"price": 99})

	// Assert
	suite.Require().Nil(err)

	var actual Product
	suite.Require().Nil(suite.db.Where("id = ?", products[0].ID).First(&actual))
	suite.Require().Equal(99, actual.Price)

	// Act
	err = suite.db.Model(new(Product)).Where("id = ?", 0).Update(database.Updates{"price": 1})

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotFound)

	// Act
	err = suite.db.Model(new(Product)).Update(database.Updates{})

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrMissingData)
}

func (suite *DBTestSuite) TestColumnNames() {
	// Arrange + Act
	cols, err := database.ColumnNames(suite.db, new(Product))

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(
		[]string{"id", "created_at", "updated_at", "deleted_at", "name", "sku", "category", "price"},
		cols,
	)

	// Arrange
	type Missing struct{ ID uint }

	// Act
	_, err = database.ColumnNames(suite.db, new(Missing))

	// Assert
	suite.Require().ErrorIs(err, querykit.ErrNotExist)
}

func (suite *DBTestSuite) TestDialect() {
	suite.Require().Equal(database.DialectSQLite, suite.db.Dialect())
}
