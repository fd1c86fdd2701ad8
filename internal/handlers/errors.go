package handlers

import (
	"fmt"
	"strconv"

	pkgerrors "plantshop/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError writes err as {"message", "error", "details"}. Server-side faults
// only expose the generic public message.
func respondError(c *fiber.Ctx, err error) error {
	code := pkgerrors.CodeOf(err)
	meta := pkgerrors.MetadataFor(code)

	message := meta.PublicMessage
	typed := pkgerrors.As(err)
	if typed != nil && meta.HTTPStatus < fiber.StatusInternalServerError && typed.Message() != "" {
		message = typed.Message()
	}

	body := fiber.Map{
		"message": message,
		"error":   code,
	}
	if typed != nil && meta.DetailsAllowed && typed.Details() != nil {
		body["details"] = typed.Details()
	}
	return c.Status(meta.HTTPStatus).JSON(body)
}

func respondBadBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   pkgerrors.CodeValidation,
	})
}

// validateBody runs the validator and writes a 400 listing the failing fields.
func validateBody(c *fiber.Ctx, validate *validator.Validate, body any) (bool, error) {
	err := validate.Struct(body)
	if err == nil {
		return true, nil
	}
	errorMessages := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"error":   pkgerrors.CodeValidation,
		"errors":  errorMessages,
	})
}

func parseID(c *fiber.Ctx, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
