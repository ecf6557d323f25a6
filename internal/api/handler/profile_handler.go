package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nimbuslabs/account-portal/internal/api/metrics"
	"github.com/nimbuslabs/account-portal/internal/core/domain"
	"github.com/nimbuslabs/account-portal/internal/core/ports"
)

type ProfileHandler struct {
	profileService ports.ProfileService
}

func NewProfileHandler(profileService ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type saveProfileRequest struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Website   string `json:"website"    validate:"omitempty,url"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

type profileResponse struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Website   string    `json:"website"`
	AvatarURL string    `json:"avatar_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

type uploadAvatarResponse struct {
	// AvatarURL is not persisted yet: include it in a profile save to keep it.
	AvatarURL string `json:"avatar_url"`
}

func toProfileResponse(p *domain.Profile) profileResponse {
	return profileResponse{
		UserID:    p.UserID,
		Username:  p.Username,
		FullName:  p.FullName,
		Website:   p.Website,
		AvatarURL: p.AvatarURL,
		UpdatedAt: p.UpdatedAt,
	}
}

// Get returns the caller's profile, creating the row on first load.
//
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	profile, err := h.profileService.EnsureProfile(c.Request().Context(), sess.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// Save replaces all four editable profile fields.
//
// @Summary      Save own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      saveProfileRequest  true  "Profile fields (full replacement)"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/profile [put]
func (h *ProfileHandler) Save(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req saveProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.profileService.SaveProfile(c.Request().Context(), sess.UserID, ports.SaveProfileInput{
		Username:  req.Username,
		FullName:  req.FullName,
		Website:   req.Website,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		metrics.ProfileSavesTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.ProfileSavesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// UploadAvatar stores a new avatar image and returns its public URL. The
// URL is not persisted here: a following profile save must carry it.
//
// @Summary      Upload an avatar image
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Param        avatar  formData  file  true  "Image file, 2MB max"
// @Success      200     {object}  uploadAvatarResponse
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Router       /api/profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable avatar file")
	}
	defer file.Close()

	url, err := h.profileService.UploadAvatar(c.Request().Context(), ports.UploadAvatarInput{
		UserID:      sess.UserID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     file,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			metrics.AvatarUploadsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.AvatarUploadsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.AvatarUploadsTotal.WithLabelValues("success").Inc()
	metrics.AvatarUploadBytes.Observe(float64(fileHeader.Size))
	return c.JSON(http.StatusOK, uploadAvatarResponse{AvatarURL: url})
}
