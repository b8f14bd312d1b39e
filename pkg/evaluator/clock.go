package evaluator

// MonotonicMillis returns milliseconds elapsed on a monotonic clock since the
// process started. Only differences between readings are meaningful.
func MonotonicMillis() float64 {
	return hiresSinceMs(0)
}
