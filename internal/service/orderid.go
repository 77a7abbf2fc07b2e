package service

const (
	orderIDAlphabet    = "0123456789ABCDEF"
	orderIDLength      = 8
	maxOrderIDAttempts = 1000
)

// newOrderID подбирает номер заказа, которого ещё нет в журнале.
func newOrderID(rnd Random, exists func(id string) bool) (string, error) {
	buf := make([]byte, orderIDLength)
	for range maxOrderIDAttempts {
		for i := range buf {
			buf[i] = orderIDAlphabet[rnd.IntN(len(orderIDAlphabet))]
		}
		id := string(buf)
		if !exists(id) {
			return id, nil
		}
	}
	return "", ErrOrderIDExhausted
}
