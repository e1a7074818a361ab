package order

import (
	"errors"
	"math"
)

// MaxQuantity is the largest quantity the orders.quantity integer column holds.
const MaxQuantity = math.MaxInt32

var (
	// ErrNotFound is returned by repositories when no order matches the given id.
	ErrNotFound = errors.New("order not found")
	// ErrQuantityOutOfRange is returned by repositories for a quantity outside 0..MaxQuantity.
	ErrQuantityOutOfRange = errors.New("order quantity out of range")
)
