package bridges

// UndefinedType marks an absent value. It encodes as null.
type UndefinedType struct{}

var Undefined UndefinedType
