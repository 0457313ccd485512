package handlers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/repository"
)

const maxImageBytes = 5 << 20

type ImageHandler struct {
	images *repository.ImageRepository
}

func NewImageHandler(images *repository.ImageRepository) *ImageHandler {
	return &ImageHandler{images: images}
}

// Upload stores the multipart field "image".
func (h *ImageHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Image file is required")
	}
	if header.Size > maxImageBytes {
		return errorResponse(c, fiber.StatusRequestEntityTooLarge, "Image is too large")
	}

	file, err := header.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Unable to read image")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Unable to read image")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "image/" + imageExtension(header.Filename)
	}

	id, err := h.images.SaveImage(c.Context(), contentType, data)
	if err != nil {
		return mapRepositoryError(c, err, "Image not found")
	}
	return c.Status(fiber.StatusCreated).JSON(models.ImageResponse{ImageID: id})
}

func (h *ImageHandler) Get(c *fiber.Ctx) error {
	contentType, data, err := h.images.GetImage(c.Context(), c.Params("id"))
	if err != nil {
		return mapRepositoryError(c, err, "Image not found")
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

func imageExtension(filename string) string {
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext {
	case "":
		return "png"
	case "jpg":
		return "jpeg"
	default:
		return ext
	}
}
