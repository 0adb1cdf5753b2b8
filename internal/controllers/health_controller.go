package controllers

import (
	"context"
	"net/http"

	"github.com/cardpoint/onboarding-service/internal/dtos"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

// Pinger is satisfied by *app.App.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	app Pinger
}

func NewHealthController(app Pinger) *HealthController {
	return &HealthController{app}
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := c.app.Ping(r.Context()); err != nil {
		utils.Logger.WithError(err).Error("onboarding-service store unreachable")
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Session store unreachable", nil, err)
		return
	}
	resp := dtos.HealthCheckResponse{Status: "OK"}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
