package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/safespace-api/internal/sanitize"
)

// MaliciousInputMessage — константный ответ при обнаружении инъекции.
// Текст фиксирован и не раскрывает, какая именно сигнатура сработала.
const MaliciousInputMessage = "Access denied: Malicious input detected"

// Ограничение на размер тела, которое middleware готов разобрать
const maxSanitizedBodySize = 1 << 20 // 1 MiB

// Sanitize возвращает middleware, пропускающее каждый строковый вход запроса
// (тело, query-параметры, параметры маршрута) через два независимых прохода:
// сначала обнаружение сигнатур инъекций (любое совпадение прерывает запрос
// целиком, до какой-либо обработки), затем очистка по whitelist. Обработчик
// никогда не видит неочищенный ввод.
func Sanitize() gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Параметры маршрута ---
		for _, param := range c.Params {
			if sanitize.IsMalicious(param.Value) {
				rejectRequest(c, "param:"+param.Key, param.Value)
				return
			}
		}

		// --- Query-параметры ---
		query := c.Request.URL.Query()
		for key, values := range query {
			for _, value := range values {
				if sanitize.IsMalicious(value) {
					rejectRequest(c, "query:"+key, value)
					return
				}
			}
		}

		// --- Тело запроса (только JSON) ---
		var bodyValue interface{}
		hasBody := false
		if isJSONRequest(c.Request) && c.Request.Body != nil {
			raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSanitizedBodySize))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Failed to read request body"})
				return
			}

			if len(bytes.TrimSpace(raw)) > 0 {
				if err := json.Unmarshal(raw, &bodyValue); err != nil {
					// Невалидный JSON отдаем обработчику как есть: его
					// binding вернет 400 с понятной ошибкой. Параметры
					// маршрута и query при этом все равно очищаются.
					cleanParamsAndQuery(c, query)
					c.Request.Body = io.NopCloser(bytes.NewReader(raw))
					c.Next()
					return
				}
				hasBody = true

				if key, value, found := findMalicious(bodyValue, ""); found {
					rejectRequest(c, "body:"+key, value)
					return
				}
			} else {
				c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			}
		}

		// Обнаружение пройдено — второй проход: очистка

		cleanParamsAndQuery(c, query)

		if hasBody {
			cleaned := cleanValue(bodyValue)
			encoded, err := json.Marshal(cleaned)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(encoded))
			c.Request.ContentLength = int64(len(encoded))
		}

		c.Next()
	}
}

// cleanParamsAndQuery пропускает параметры маршрута и query через
// whitelist-очистку и переписывает их в запросе
func cleanParamsAndQuery(c *gin.Context, query url.Values) {
	for i, param := range c.Params {
		c.Params[i].Value = sanitize.Clean(param.Value)
	}

	for key, values := range query {
		for i, value := range values {
			values[i] = sanitize.Clean(value)
		}
		query[key] = values
	}
	c.Request.URL.RawQuery = query.Encode()
}

// rejectRequest завершает запрос с константным сообщением. Совпавшее значение
// попадает только в серверный лог.
func rejectRequest(c *gin.Context, key, value string) {
	log.Printf("[Sanitize] Заблокирован подозрительный ввод: %s=%q ip=%s path=%s",
		key, value, c.ClientIP(), c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": MaliciousInputMessage})
}

func isJSONRequest(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.TrimSpace(strings.ToLower(contentType)), "application/json")
}

// findMalicious рекурсивно обходит разобранный JSON и возвращает первый
// строковый узел, совпавший с сигнатурой. Нестроковые значения (числа,
// логические, null) сигнатурам не сопоставляются.
func findMalicious(value interface{}, path string) (string, string, bool) {
	switch v := value.(type) {
	case string:
		if sanitize.IsMalicious(v) {
			return path, v, true
		}
	case map[string]interface{}:
		for key, child := range v {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			if k, val, found := findMalicious(child, childPath); found {
				return k, val, true
			}
		}
	case []interface{}:
		for _, child := range v {
			if k, val, found := findMalicious(child, path); found {
				return k, val, true
			}
		}
	}
	return "", "", false
}

// cleanValue рекурсивно очищает все строковые узлы; остальные типы
// возвращаются без изменений.
func cleanValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return sanitize.Clean(v)
	case map[string]interface{}:
		for key, child := range v {
			v[key] = cleanValue(child)
		}
		return v
	case []interface{}:
		for i, child := range v {
			v[i] = cleanValue(child)
		}
		return v
	default:
		return value
	}
}
