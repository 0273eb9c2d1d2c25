package domain

// Capacity accounting.
//
// The authoritative reserved count is the SQL aggregate executed under the
// event row lock (SUM of seat_count over non-canceled reservations). The
// helpers here implement the identical formula for pre-loaded data; they must
// never be used for admission decisions outside a locking transaction.

// ReservedSeats sums the seats of reservations that hold capacity.
func ReservedSeats(reservations []*Reservation) int {
	total := 0
	for _, r := range reservations {
		if r.Status.Active() {
			total += r.SeatCount
		}
	}
	return total
}

// AvailableSeats never goes negative, even if data was oversold by hand.
func AvailableSeats(capacity, reservedSeats int) int {
	if avail := capacity - reservedSeats; avail > 0 {
		return avail
	}
	return 0
}

func IsFull(capacity, reservedSeats int) bool {
	return AvailableSeats(capacity, reservedSeats) == 0
}
