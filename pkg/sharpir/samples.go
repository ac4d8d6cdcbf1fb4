package sharpir

// fullScaleMillivolts is the analog reference the calibrations were made at.
const fullScaleMillivolts = 5000

// arduinoMap rescales x from [inMin, inMax] to [outMin, outMax] with
// truncating integer division.
func arduinoMap(x, inMin, inMax, outMin, outMax int64) int64 {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// toVolts converts a raw code from a converter whose largest code is max.
func toVolts(raw int64, max int) float64 {
	return float64(arduinoMap(raw, 0, int64(max), 0, fullScaleMillivolts)) / 1000.0
}

// sortSamples sorts a in place, ascending. Hoare partitioning around the
// middle element, then recursion into both sides.
func sortSamples(a []float64) {
	if len(a) < 2 {
		return
	}
	quicksort(a, 0, len(a)-1)
}

func quicksort(a []float64, left, right int) {
	i, j := left, right
	pivot := a[(left+right)/2]

	for i <= j {
		for a[i] < pivot {
			i++
		}
		for a[j] > pivot {
			j--
		}
		if i <= j {
			a[i], a[j] = a[j], a[i]
			i++
			j--
		}
	}

	if left < j {
		quicksort(a, left, j)
	}
	if i < right {
		quicksort(a, i, right)
	}
}

// median sorts samples in place and returns the element at len/2.
func median(samples []float64) float64 {
	sortSamples(samples)
	return samples[len(samples)/2]
}
