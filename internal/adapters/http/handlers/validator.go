// Package handlers - HTTP handlers кошелькового сервиса.
package handlers

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
)

// ============================================
// Validator Setup
// ============================================

var setupOnce sync.Once

// moneyAmountRegex - положительная сумма, до 4 знаков после точки.
// Точность совпадает с NUMERIC(20,4) в схеме БД.
var moneyAmountRegex = regexp.MustCompile(`^\d+(\.\d{1,4})?$`)

// SetupValidator регистрирует кастомные валидаторы в Gin binding engine.
//
// Вызывается один раз при старте приложения. Потокобезопасен.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		// В ошибках валидации показываем json-имена полей, а не Go-имена
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("money_amount", validateMoneyAmount)
	})
}

// validateMoneyAmount проверяет строковую денежную сумму.
//
// Требования: десятичная запись, строго положительная,
// не больше 4 знаков после точки.
func validateMoneyAmount(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if !moneyAmountRegex.MatchString(value) {
		return false
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return false
	}

	return amount.IsPositive()
}

// ============================================
// Validation Error Handling
// ============================================

// HandleValidationErrors преобразует ошибки биндинга в 422 ответ.
func HandleValidationErrors(c *gin.Context, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		common.ValidationFailed(c, "invalid request body: "+err.Error())
		return
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldErr.Field()+": "+validationMessage(fieldErr))
	}

	common.ValidationFailed(c, strings.Join(messages, "; "))
}

// validationMessage возвращает человекочитаемое сообщение об ошибке.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "uuid":
		return "invalid UUID format"
	case "email":
		return "invalid email format"
	case "min":
		return "value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "value is too long (maximum: " + fe.Param() + ")"
	case "money_amount":
		return "invalid amount (positive decimal with up to 4 fraction digits)"
	default:
		return "invalid value"
	}
}

// ============================================
// Request Parsing Helpers
// ============================================

// BindJSON биндит JSON тело запроса.
// Возвращает true если успешно, false если ответ с ошибкой уже отправлен.
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}
