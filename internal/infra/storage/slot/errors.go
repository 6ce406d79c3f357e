package slot

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
)

var (
	// ErrSlotNotFound возвращается, когда слот на дату не найден
	ErrSlotNotFound = errors.New("slot.repository: slot not found")

	// ErrVersionConflict возвращается, когда слот изменили параллельно (не совпала версия).
	// Оборачивает txmanager.ErrConflict, поэтому транзакция будет повторена.
	ErrVersionConflict = fmt.Errorf("slot.repository: version conflict: %w", txmanager.ErrConflict)

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("slot.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("slot.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("slot.repository: failed to scan row")
)
