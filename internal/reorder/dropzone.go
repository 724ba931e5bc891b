package reorder

// Classify splits a block's box at its vertical midpoint: a pointer in the
// upper half targets Above, anything else Below. Each call stands alone, so
// a pointer hovering on the midpoint may alternate between the two.
func Classify(pointerY, blockTop, blockHeight float64) Position {
	if pointerY < blockTop+blockHeight/2 {
		return Above
	}
	return Below
}
