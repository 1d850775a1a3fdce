// Package sanitize реализует заградительный фильтр входных данных: обнаружение
// сигнатур SQL-инъекций и последующую очистку строк по whitelist-набору символов.
//
// Список шаблонов — blocklist и по определению неполон. Это слой
// defense-in-depth: собственно защита от инъекций обеспечивается
// параметризованными запросами на уровне хранилища.
package sanitize

import (
	"regexp"
	"strings"
)

// Сигнатуры SQL-инъекций: маркеры комментариев, тавтологии, ключевые слова
// со структурой запроса, пробы функций и hex-литералы.
var sqliPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(--|#|/\*)`),
	regexp.MustCompile(`(?i)\b(OR|AND)\b\s+\d+=\d+`),
	regexp.MustCompile(`(?i)\bUNION\b\s+SELECT\b`),
	regexp.MustCompile(`(?i)\bSELECT\b.*\bFROM\b`),
	regexp.MustCompile(`(?i)\bINSERT\b\s+INTO\b`),
	regexp.MustCompile(`(?i)\bUPDATE\b\s+\w+`),
	regexp.MustCompile(`(?i)\bDELETE\b\s+FROM\b`),
	regexp.MustCompile(`(?i)\bDROP\b\s+TABLE\b`),
	regexp.MustCompile(`(?i)\bALTER\b\s+TABLE\b`),
	regexp.MustCompile(`(?i)\bSLEEP\s*\(`),
	regexp.MustCompile(`(?i)\bBENCHMARK\s*\(`),
	regexp.MustCompile(`(?i)0x[0-9A-F]+`),
	regexp.MustCompile(`(?i)\bLOAD_FILE\b`),
	regexp.MustCompile(`(?i)\bOUTFILE\b`),
	regexp.MustCompile("(?i)['\"`]\\s*(OR|AND)\\s*['\"`]"),
}

// Whitelist символов, остающихся после очистки: буквы, цифры, пробельные
// символы и небольшой набор пунктуации.
var cleanPattern = regexp.MustCompile(`[^\w\s.,!?@#\-]`)

// IsMalicious возвращает true, если значение содержит хотя бы одну сигнатуру
// инъекции. Пустая строка никогда не считается вредоносной.
func IsMalicious(value string) bool {
	if value == "" {
		return false
	}

	input := strings.TrimSpace(value)
	for _, pattern := range sqliPatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}

// Clean удаляет из строки все символы вне whitelist.
// Применяется только к значениям, прошедшим IsMalicious.
func Clean(value string) string {
	return cleanPattern.ReplaceAllString(value, "")
}
