package handlers

import (
	"net/http"

	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/services"
)

type GymHandler struct {
	gymService services.GymService
}

func NewGymHandler(gs services.GymService) *GymHandler {
	return &GymHandler{
		gymService: gs,
	}
}

func currentActor(r *http.Request) (services.Actor, error) {
	id, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return services.Actor{}, err
	}
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		return services.Actor{}, err
	}
	return services.Actor{ID: id, Role: role}, nil
}

// ListGyms godoc
// @Summary Список залов
// @Tags gyms
// @Produce json
// @Param region query string false "Регион"
// @Param q query string false "Поиск по названию и адресу"
// @Param page query int false "Номер страницы"
// @Success 200 {object} services.GymPage
// @Router /gyms [get]
func (h *GymHandler) ListGyms(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.gymService.ListGyms(r.Context(), services.GymQuery{
		Region: r.URL.Query().Get("region"),
		Search: r.URL.Query().Get("q"),
		Page:   page,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateGym godoc
// @Summary Добавить зал
// @Tags gyms
// @Accept json
// @Produce json
// @Param body body services.GymInput true "Данные зала"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /gyms [post]
func (h *GymHandler) CreateGym(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.GymInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	gym, err := h.gymService.CreateGym(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"gym": gym}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetGym godoc
// @Summary Зал по ID
// @Tags gyms
// @Produce json
// @Param gymID path int true "Gym ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Зал не найден"
// @Router /gyms/{gymID} [get]
func (h *GymHandler) GetGym(w http.ResponseWriter, r *http.Request) {
	gymID, err := getIDFromURL(r, "gymID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	gym, err := h.gymService.GetGym(r.Context(), gymID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"gym": gym}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateGym godoc
// @Summary Изменить зал (автор или администратор)
// @Tags gyms
// @Accept json
// @Produce json
// @Param gymID path int true "Gym ID"
// @Param body body services.GymInput true "Данные зала"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Зал не найден"
// @Security BearerAuth
// @Router /gyms/{gymID} [put]
func (h *GymHandler) UpdateGym(w http.ResponseWriter, r *http.Request) {
	gymID, err := getIDFromURL(r, "gymID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := currentActor(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.GymInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	gym, err := h.gymService.UpdateGym(r.Context(), gymID, actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"gym": gym}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteGym godoc
// @Summary Удалить зал
// @Tags gyms
// @Param gymID path int true "Gym ID"
// @Success 204 "Зал удалён"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Зал не найден"
// @Security BearerAuth
// @Router /gyms/{gymID} [delete]
func (h *GymHandler) DeleteGym(w http.ResponseWriter, r *http.Request) {
	gymID, err := getIDFromURL(r, "gymID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := currentActor(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.gymService.DeleteGym(r.Context(), gymID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadGymPhoto godoc
// @Summary Загрузить фото зала
// @Tags gyms
// @Accept multipart/form-data
// @Produce json
// @Param gymID path int true "Gym ID"
// @Param photo formData file true "Изображение"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 503 {object} map[string]string "Загрузка файлов отключена"
// @Security BearerAuth
// @Router /gyms/{gymID}/photo [post]
func (h *GymHandler) UploadGymPhoto(w http.ResponseWriter, r *http.Request) {
	gymID, err := getIDFromURL(r, "gymID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := currentActor(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	file, contentType, err := formImage(r, "photo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	gym, err := h.gymService.UploadPhoto(r.Context(), gymID, actor, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"gym": gym}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
