/*
Package kit binds query helpers to a GORM model.

A [Kit] upserts rows in bulk and builds [database.Scope] values
that exclude columns, filter by request parameters and search in full-text:

	k, err := kit.New(db, new(Product),
		kit.WithExcludable("deleted_at"),
		kit.WithFilterable(kit.Filterable{
			"category": {},
			"name":     {Operator: "LIKE", Template: "%{name}%"},
			"price":    {Operator: "<="},
		}),
		kit.WithSearchable("name", "description"),
	)
	if err != nil {
		return err
	}

	var products []Product
	err = k.Query().
		Scope(k.Filter(kit.Params{"name": "ham", "price": 20})).
		Scope(k.Search("claw hammer")).
		Scope(k.Exclude()).
		Find(&products)

Scopes report misconfiguration through the error the finisher method returns.
*/
package kit
