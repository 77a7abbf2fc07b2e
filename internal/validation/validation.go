// Package validation содержит функции валидации входных данных.
package validation

import "strings"

// OrderNumberLength задаёт длину номера заказа.
const OrderNumberLength = 8

// IsValidOrderNumber проверяет, что номер заказа состоит из восьми шестнадцатеричных символов.
// Регистр не важен.
func IsValidOrderNumber(number string) bool {
	if len(number) != OrderNumberLength {
		return false
	}

	for i := 0; i < len(number); i++ {
		ch := number[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'A' && ch <= 'F':
		case ch >= 'a' && ch <= 'f':
		default:
			return false
		}
	}

	return true
}

// NormalizeOrderNumber обрезает пробелы и приводит номер заказа к верхнему регистру.
func NormalizeOrderNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// IsValidSlug проверяет идентификатор категории или варианта продукта:
// строчные латинские буквы, цифры и подчёркивание.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch < 'a' || ch > 'z') && (ch < '0' || ch > '9') && ch != '_' {
			return false
		}
	}

	return true
}
