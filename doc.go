/*
Package rowset converts rows of a query result into application values and
lets callers post-process what a result cursor returns without touching the
cursor itself.

# Cursors

A [Cursor] is a forward-only handle over query results: Next advances, Value and
String read a cell of the current row selected by [Ordinal] (1-based) or
[Label] (case-insensitive, first match wins). Database cursors come from the
storage clients in the sqldb, mysql, sqlite, mssql and pg packages; the xlsx
package reads spreadsheets; [Table.Cursor] serves in-memory rows.

# Row processing

A [RowProcessor] turns the current row into an ordered []any ([RowProcessor.ToArray]),
a map keyed by column label ([RowProcessor.ToMap], the last duplicate label wins)
or a populated struct ([Bean]). Struct fields bind by `db:"name"` first,
otherwise by field name; names are compared case-insensitively with the
separators "_", "-", "." and " " removed, so FIRST_NAME fills FirstName.
Fields tagged `db:"-"` are never populated, unmatched columns are ignored and
unmatched fields keep their initial value ([Defaulter] sets those). Values are
coerced to the field type; a failed coercion returns a [*CoercionError] and no
struct.

# Handlers

[Handler] drives a cursor: Single advances at most once, All drains the cursor
and Scalar reads one cell. Handlers and processors hold no per-call state and
may be shared between goroutines working on different cursors.

# Interception

[Wrap] builds a [Wrapper] that forwards every call to the wrapped cursor and
passes the successful results of the operations named in [Rules] through a
[Transform]. [TrimStrings] is the built-in policy trimming string results of
String and Value.

	c := rowset.TrimStrings(cursor)
	users, err := rowset.Beans[User](rowset.DefaultProcessor()).All(c)
*/
package rowset
