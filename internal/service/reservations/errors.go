package reservations

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("reservations: internal error")

	// откатывает снятие истёкшего бронирования, если его успели подтвердить
	errBookingConfirmed = errors.New("reservations: booking confirmed concurrently")
)
