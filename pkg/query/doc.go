// Package query provides a fluent SQL builder with named parameter bindings.
//
// A Builder accumulates SELECT, JOIN, WHERE, GROUP BY, HAVING, ORDER BY,
// LIMIT and OFFSET clauses for a single table and hands the assembled SQL
// plus its bindings to a Runner (typically a *db.Conn). Values are never
// interpolated into the SQL text: every value-bearing clause binds through a
// named placeholder derived from the column name.
//
// # Basic Usage
//
//	rows, err := conn.Table("movies").
//	    Select("id", "title").
//	    WhereEq("status", "released").
//	    WhereLike("title", "%matrix%").
//	    OrderBy("popularity", "desc").
//	    Limit(10).
//	    Get(ctx)
//
// Produces:
//
//	SELECT id, title FROM movies WHERE status = :status AND title LIKE :title
//	ORDER BY popularity DESC LIMIT 10
//
// # Placeholders
//
// Placeholder names come from the column name with non-word characters
// replaced by underscores. When the same column is bound twice, an
// incrementing counter is appended (:rating, :rating1, :rating2). WhereIn
// binds :col_0, :col_1, ... and Update binds :set_col for SET values.
//
// # Terminal Operations
//
// Get, First, Count, Exists, Paginate, Insert, Update and Delete execute
// through the Runner. Count temporarily replaces the select list with
// COUNT(*) and restores it afterwards. Paginate counts on an independent
// clone so the page LIMIT/OFFSET never leaks into the total.
//
// Update and Delete refuse to run without at least one WHERE condition and
// return a *PreconditionError without touching the database.
//
// # Errors
//
// Builder methods are chainable and record the first invalid input (for
// example an unknown operator); the recorded error is returned by the next
// terminal operation.
package query
