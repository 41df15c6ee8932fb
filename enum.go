package querykit

// Enumerable is the interface implemented by types that can only be represented by enumerable, constant values.
//
// Clause types and search modes used to configure a kit.Kit are Enumerables,
// so their validity can be asserted before any SQL is built.
type Enumerable interface {
	String() string
	Valid() error
}
