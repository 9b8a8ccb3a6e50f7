package controller

import (
	"net/http"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/utils"
)

const welcomeBody = "Available Routes:<br/>" +
	"/api/v1.0/precipitation<br/>" +
	"/api/v1.0/stations<br/>" +
	"/api/v1.0/tobs<br/>" +
	"/api/v1.0/&ltstart&gt and /api/v1.0/&ltstart&gt/&ltend&gt"

func (c *climateControllerImpl) handleWelcome(w http.ResponseWriter, r *http.Request) {
	utils.WriteText(w, http.StatusOK, htmlContentType, welcomeBody)
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	values, err := c.service.Precipitation(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, dailyObjects(values))
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stationObjects(stations))
}

func (c *climateControllerImpl) handleTemperatures(w http.ResponseWriter, r *http.Request) {
	values, err := c.service.Temperatures(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, dailyObjects(values))
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	summary, err := c.service.StatsFrom(r.Context(), r.PathValue("start"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (c *climateControllerImpl) handleStatsBetween(w http.ResponseWriter, r *http.Request) {
	summary, err := c.service.StatsBetween(r.Context(), r.PathValue("start"), r.PathValue("end"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}
