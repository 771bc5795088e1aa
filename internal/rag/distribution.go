package rag

// Distribute spreads numQuestions over numChunks slots round-robin from slot 0.
// Slot counts sum to numQuestions and differ from each other by at most one.
func Distribute(numChunks, numQuestions int) []int {
	if numChunks <= 0 {
		return nil
	}
	out := make([]int, numChunks)
	if numQuestions <= 0 {
		return out
	}
	base, extra := numQuestions/numChunks, numQuestions%numChunks
	for i := range out {
		out[i] = base
		if i < extra {
			out[i]++
		}
	}
	return out
}
