// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objectserver

// Downcast recovers the concrete handler type behind iface. It is a
// checked type assertion: the runtime type is compared with T before
// the typed value is produced, and a mismatch yields the zero T and
// false.
//
//	counter, ok := objectserver.Downcast[*Counter](iface)
func Downcast[T Interface](iface Interface) (T, bool) {
	typed, ok := iface.(T)
	return typed, ok
}

// ReadAs runs fn with the handler typed as T, under shared access. It
// returns false without calling fn when the handler is not a T.
func ReadAs[T Interface](arc *ArcInterface, fn func(T)) bool {
	matched := false
	arc.Read(func(iface Interface) {
		typed, ok := Downcast[T](iface)
		if !ok {
			return
		}
		matched = true
		fn(typed)
	})
	return matched
}

// WriteAs runs fn with the handler typed as T, under exclusive access.
// It returns false without calling fn when the handler is not a T.
func WriteAs[T Interface](arc *ArcInterface, fn func(T)) bool {
	matched := false
	arc.Write(func(iface Interface) {
		typed, ok := Downcast[T](iface)
		if !ok {
			return
		}
		matched = true
		fn(typed)
	})
	return matched
}
