package commands

// numericValue is the demonstration value type the CLI builds trees over.
// The configuration document carries no type information, so a concrete
// Ordered scalar stands in for whatever value type a real caller's code
// would supply.
type numericValue float64

// Less implements blockcache.Lesser[numericValue].
func (n numericValue) Less(other numericValue) bool { return n < other }
