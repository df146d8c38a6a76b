package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialdesk/internal/service"
	"github.com/maheshrc27/socialdesk/internal/transfer"
)

type UploadHandler struct {
	s service.UploadService
}

func NewUploadHandler(service service.UploadService) *UploadHandler {
	return &UploadHandler{s: service}
}

func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("media")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Unable to read uploaded file")
	}
	defer file.Close()

	res, err := h.s.Store(c.Context(), &transfer.UploadFile{
		Name:     fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  file,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "File uploaded successfully",
		"fileName": res.FileName,
		"fileUrl":  res.FileURL,
		"fileSize": res.FileSize,
		"mimetype": res.MimeType,
	})
}
