package stdx

// Must0 panics if the provided error is not nil. It is intended for
// call sites where an error is genuinely impossible and would indicate
// a programming bug rather than a runtime condition.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v when err is nil and panics otherwise. Useful for
// single-value constructors that cannot fail with valid inputs.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Must2 returns both values when err is nil and panics otherwise.
func Must2[T any, V any](t T, v V, err error) (T, V) {
	if err != nil {
		panic(err)
	}
	return t, v
}
