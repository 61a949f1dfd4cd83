package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/middleware"
)

const maxPictureUploadBytes = 5 << 20

func (h *Handler) CurrentUser(c echo.Context) error {
	user, err := h.userRepo.GetUserByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateProfilePicture accepts a multipart upload under the "picture"
// field.
func (h *Handler) UpdateProfilePicture(c echo.Context) error {
	fileHeader, err := c.FormFile("picture")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("missing picture upload"))
	}
	if fileHeader.Size > maxPictureUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorBody("picture too large"))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("unreadable picture upload"))
	}
	defer f.Close()

	filename, err := h.updatePicture.Execute(c.Request().Context(), middleware.UserID(c), f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("unsupported image format"))
	}
	return c.JSON(http.StatusOK, map[string]string{"image_file": filename})
}
