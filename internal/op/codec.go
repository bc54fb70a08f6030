package op

// Codec maps stored elements of type E to engine values of type T and back.
//
// Load is applied whenever an engine reads an element (input or a previously
// written output); Store is applied whenever it writes an output. Store may be
// nil for engines that never write elements (reductions).
type Codec[E, T any] struct {
	Load  func(E) T
	Store func(T) E
}

// Identity returns the codec that passes values through unchanged.
func Identity[T any]() Codec[T, T] {
	return Codec[T, T]{
		Load:  func(x T) T { return x },
		Store: func(x T) T { return x },
	}
}

// Lifted returns the codec pairing with Lift: loads wrap values as present,
// stores unwrap them.
func Lifted[T any]() Codec[T, Partial[T]] {
	return Codec[T, Partial[T]]{
		Load:  Some[T],
		Store: func(p Partial[T]) T { return p.V },
	}
}

// Transform returns a load-only codec applying unary to every element.
func Transform[E, T any](unary func(E) T) Codec[E, T] {
	return Codec[E, T]{Load: unary}
}
