package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/newsflow/backend/pkg/utils"
)

// Version is the server version, injected at build time:
//
//	go build -ldflags "-X github.com/newsflow/backend/internal/handlers.Version=1.2.3"
var Version = "dev"

const apiVersion = "v1"

type versionResponse struct {
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
}

func GetVersion(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, versionResponse{
		Version:    Version,
		APIVersion: apiVersion,
	})
}
