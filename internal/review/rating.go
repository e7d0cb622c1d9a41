package review

// NextAverage folds one more rating into a running mean of total ratings.
func NextAverage(average float64, total, rating int) (float64, int) {
	next := total + 1
	return (average*float64(total) + float64(rating)) / float64(next), next
}
