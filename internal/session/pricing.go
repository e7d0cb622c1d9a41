package session

// Price is the cost of a session of the given length at hourlyRate. It is
// fixed at booking time and not rounded.
func Price(hourlyRate float64, durationMinutes int) float64 {
	return hourlyRate * float64(durationMinutes) / 60
}
