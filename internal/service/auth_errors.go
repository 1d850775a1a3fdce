package service

import "errors"

// Ошибки потока аутентификации; обработчики отображают их в стабильные error_type.
var (
	// ErrInvalidCredentials возвращается одинаково и для неизвестного имени,
	// и для неверного пароля: ответ не должен позволять перечислять учетные записи.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrInvalidVerificationCode = errors.New("invalid_verification_code")
	ErrVerificationExpired     = errors.New("verification_expired")
	ErrCodeDeliveryFailed      = errors.New("code_delivery_failed")
)
