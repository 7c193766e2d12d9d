package util

import (
	"github.com/ferdian3456/tiergate/internal/constant"

	"github.com/gofiber/fiber/v2"
)

func ReadRequestBody(ctx *fiber.Ctx, result interface{}) error {
	err := ctx.BodyParser(&result)
	if err != nil {
		return err
	}
	return nil
}

func SendSuccessResponseNoData(ctx *fiber.Ctx) error {
	err := ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "OK",
	})
	if err != nil {
		return err
	}
	return nil
}

func SendErrorResponseUnauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{
			"code": constant.ERR_UNAUTHORIZED_ERROR,
		},
	})
}
