// Package repository provides a generic repository built on Bun: finders,
// CRUD, pagination, transactions and upsert, plus the query adapter that
// runs compiled searches.
package repository
