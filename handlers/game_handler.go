package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/services"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gs services.GameService) *GameHandler {
	return &GameHandler{
		gameService: gs,
	}
}

// ListGames godoc
// @Summary Лента игр
// @Tags games
// @Description По умолчанию окно - сегодня плюс 14 дней в часовом поясе сервиса.
// @Produce json
// @Param from query string false "Начало окна, YYYY-MM-DD"
// @Param to query string false "Конец окна, YYYY-MM-DD"
// @Param region query []string false "Регионы (можно несколько или через запятую)" collectionFormat(multi)
// @Param gender query string false "any|male|female|mixed"
// @Param skill query string false "any|beginner|intermediate|advanced"
// @Param q query string false "Поиск по названию и описанию"
// @Param page query int false "Номер страницы"
// @Success 200 {object} services.GamePage
// @Failure 400 {object} map[string]string "Некорректные параметры"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Router /games [get]
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	query, err := parseListingQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	page, err := h.gameService.ListGames(r.Context(), query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, page, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseListingQuery(r *http.Request) (services.ListingQuery, error) {
	values := r.URL.Query()
	var query services.ListingQuery

	for _, name := range []string{"from", "to"} {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			return query, fmt.Errorf("query parameter %q must be a date in YYYY-MM-DD format", name)
		}
		if name == "from" {
			query.From = &d
		} else {
			query.To = &d
		}
	}

	for _, raw := range values["region"] {
		for _, region := range strings.Split(raw, ",") {
			if region = strings.TrimSpace(region); region != "" {
				query.Regions = append(query.Regions, region)
			}
		}
	}

	if raw := strings.TrimSpace(values.Get("gender")); raw != "" {
		g := models.GenderTag(strings.ToLower(raw))
		query.Gender = &g
	}
	if raw := strings.TrimSpace(values.Get("skill")); raw != "" {
		s := models.SkillTag(strings.ToLower(raw))
		query.Skill = &s
	}
	query.Search = values.Get("q")

	page, err := queryInt(r, "page")
	if err != nil {
		return query, err
	}
	query.Page = page
	return query, nil
}

// CreateGame godoc
// @Summary Создать игру
// @Tags games
// @Accept json
// @Produce json
// @Param body body services.GameInput true "Параметры игры"
// @Success 201 {object} map[string]interface{} "Игра создана"
// @Failure 400 {object} map[string]string "Некорректный запрос"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 404 {object} map[string]string "Зал не найден"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /games [post]
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.GameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetGame godoc
// @Summary Игра по ID
// @Tags games
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Игра не найдена"
// @Router /games/{gameID} [get]
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGame(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateGame godoc
// @Summary Изменить игру (только владелец)
// @Tags games
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param body body services.GameInput true "Новые параметры"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Игра не найдена"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /games/{gameID} [put]
func (h *GameHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.GameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.UpdateGame(r.Context(), gameID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteGame godoc
// @Summary Удалить игру вместе с заявками
// @Tags games
// @Param gameID path int true "Game ID"
// @Success 204 "Игра удалена"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Игра не найдена"
// @Security BearerAuth
// @Router /games/{gameID} [delete]
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.gameService.DeleteGame(r.Context(), gameID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListHostedGames godoc
// @Summary Игры, созданные текущим пользователем
// @Tags games
// @Produce json
// @Param page query int false "Номер страницы"
// @Success 200 {object} services.GamePage
// @Security BearerAuth
// @Router /games/mine [get]
func (h *GameHandler) ListHostedGames(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.gameService.ListHostedGames(r.Context(), currentUserID, page)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
