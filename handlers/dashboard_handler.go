package handlers

import (
	"net/http"

	"github.com/Dosada05/pickup-hoops/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(s services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: s}
}

// Stats godoc
// @Summary Сводная статистика (только администратор)
// @Tags admin
// @Produce json
// @Success 200 {object} services.DashboardStats
// @Failure 403 {object} map[string]string "Нет прав"
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
