/*
Package database provides versioned object databases on top of the storage engines in database/storage.

Connections

A database is described by a Descriptor: a name, a schema version and its stores.
Open opens the database and, if the stored version is lower than the requested one, deletes and recreates every store of the descriptor.
Data is not migrated. A lower requested version is an error.

	db, err := database.Open(&database.Descriptor{
		Name:    "Todos",
		Version: 1,
		Stores: []database.StoreDescriptor{{
			Name:    "tasks",
			KeyPath: "postDate",
			Indexes: map[string]database.IndexOptions{
				"title":    {},
				"postDate": {Unique: true},
			},
		}},
	}, &database.Options{Location: "/var/lib/todos"})

Queries

Queries are built with the query package and select records by store, index, key range, direction and page:

	records, err := db.Query(query.New("tasks").Over("title").Range(storage.Bound("a", "m", false, true)).Page(2, 10))

Every record returned is owned by the caller.

Mutations

Batches (InsertMany, RemoveMany, ImportAll) run sequentially in one transaction and stop at the first failing item.
The items before it stay applied and the returned *Error carries the position of the failed item in Index.

Errors

All operations return *Error values. Use IsKind to check the kind of an error.
*/
package database
