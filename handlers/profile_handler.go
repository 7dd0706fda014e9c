package handlers

import (
	"net/http"

	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/services"
)

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(ps services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: ps,
	}
}

// GetProfile godoc
// @Summary Профиль игрока
// @Tags profiles
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Профиль не найден"
// @Router /profiles/{userID} [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpsertMyProfile godoc
// @Summary Создать или обновить свой профиль
// @Tags profiles
// @Accept json
// @Produce json
// @Param body body services.ProfileInput true "Поля профиля"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Некорректный запрос"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /profiles/me [put]
func (h *ProfileHandler) UpsertMyProfile(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.ProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.UpsertProfile(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadMyAvatar godoc
// @Summary Загрузить аватар
// @Tags profiles
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Изображение (jpeg, png, gif, webp)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Профиль ещё не создан"
// @Failure 422 {object} map[string]string "Неподдерживаемый тип файла"
// @Failure 503 {object} map[string]string "Загрузка файлов отключена"
// @Security BearerAuth
// @Router /profiles/me/avatar [post]
func (h *ProfileHandler) UploadMyAvatar(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	file, contentType, err := formImage(r, "avatar")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	profile, err := h.profileService.UploadAvatar(r.Context(), currentUserID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
