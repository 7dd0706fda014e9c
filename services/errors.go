package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации
	ErrValidationFailed         = errors.New("validation failed")
	ErrPasswordTooShort         = errors.New("password must be at least 8 characters long")
	ErrInvalidApplicationStatus = errors.New("status must be one of pending, approved, rejected")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound    = errors.New("user not found")
	ErrGameNotFound    = errors.New("game not found")
	ErrGymNotFound     = errors.New("gym not found")
	ErrProfileNotFound = errors.New("profile not found")

	ErrGameCapacityBelowApproved = errors.New("max participants cannot be lower than the number of approved players")
	ErrUploadsDisabled           = errors.New("file uploads are not configured")
	ErrUnsupportedImageType      = errors.New("unsupported image content type")
)
