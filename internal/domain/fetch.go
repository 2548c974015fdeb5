package domain

// FetchResult carries the outcome of a remote list fetch so callers can tell
// "confirmed empty" apart from "fetch failed".
type FetchResult[T any] struct {
	Items []T
	Err   error
}

// Fetched wraps a successful fetch.
func Fetched[T any](items []T) FetchResult[T] {
	return FetchResult[T]{Items: items}
}

// FetchFailed wraps a failed fetch.
func FetchFailed[T any](err error) FetchResult[T] {
	return FetchResult[T]{Err: err}
}

// Failed reports whether the fetch itself failed.
func (r FetchResult[T]) Failed() bool { return r.Err != nil }
