package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nimbuslabs/account-portal/internal/core/ports"
)

// AvatarHandler serves stored avatar objects: it is the resolution target of
// the public URLs the storage layer hands out.
type AvatarHandler struct {
	storage ports.AvatarStorage
}

func NewAvatarHandler(storage ports.AvatarStorage) *AvatarHandler {
	return &AvatarHandler{storage: storage}
}

// Get streams one avatar object.
//
// @Summary      Fetch an avatar image
// @Tags         profile
// @Param        key  path  string  true  "Storage key"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /avatars/{key} [get]
func (h *AvatarHandler) Get(c echo.Context) error {
	reader, contentType, err := h.storage.Open(c.Request().Context(), c.Param("key"))
	if err != nil {
		return err
	}
	defer reader.Close()

	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response(), reader)
	return err
}
