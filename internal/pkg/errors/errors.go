package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок аутентификации (неверные учетные данные, неверный код).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, исчерпаны попытки
	// генерации уникального номера дела).
	ErrConflict = errors.New("resource state conflict")

	// ErrDependency используется, когда внешняя зависимость (БД, почтовый сервис)
	// недоступна или ответила ошибкой.
	ErrDependency = errors.New("dependency failure")
)
