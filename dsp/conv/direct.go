package conv

// Direct computes the full linear convolution of x and h in the time domain.
// The result has len(x)+len(h)-1 samples. Either input being empty yields nil.
func Direct(x, h []float64) []float64 {
	if len(x) == 0 || len(h) == 0 {
		return nil
	}

	out := make([]float64, len(x)+len(h)-1)
	for i, xv := range x {
		if xv == 0 {
			continue
		}
		for j, hv := range h {
			out[i+j] += xv * hv
		}
	}

	return out
}
