package api

import (
	"cardbook/internal/engine"
	"cardbook/internal/geo"
	"cardbook/internal/models"
	"cardbook/internal/session"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Geocoder is the part of geo.Geocoder the handlers use.
type Geocoder interface {
	SmartGeocode(ctx context.Context, address, city, country string) *models.GeocodeResult
}

// Sessions is the demo sign-in backing /api/session.
type Sessions interface {
	session.Provider
	Login(w http.ResponseWriter, r *http.Request, u session.User) error
	Logout(w http.ResponseWriter, r *http.Request) error
}

type Handler struct {
	table    *engine.Table
	geocoder Geocoder
	sessions Sessions
	log      *zap.Logger
}

func NewHandler(table *engine.Table, geocoder Geocoder, sessions Sessions, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{table: table, geocoder: geocoder, sessions: sessions, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	contacts := api.Group("/contacts", h.requireLoaded)
	contacts.GET("", h.GetContacts)
	contacts.POST("/actions", h.PostActions)
	contacts.GET("/selected", h.GetSelected)
	contacts.GET("/facets", h.GetFacets)
	contacts.GET("/state", h.GetState)
	contacts.PUT("/state", h.PutState)
	contacts.GET("/:id/location", h.GetContactLocation)

	api.GET("/analytics", h.GetAnalytics, h.requireLoaded)
	api.GET("/geocode", h.Geocode)

	api.GET("/session", h.GetSession)
	api.POST("/session", h.Login)
	api.DELETE("/session", h.Logout)
}

// requireLoaded answers 503 while the first load is pending and 500 when it failed.
func (h *Handler) requireLoaded(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, err := h.table.Status()
		switch status {
		case engine.StatusPending:
			return echo.NewHTTPError(http.StatusServiceUnavailable, "contacts are loading")
		case engine.StatusFailed:
			if h.table.Store() == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "contacts failed to load").SetInternal(err)
			}
		}
		return next(c)
	}
}

func (h *Handler) Health(c echo.Context) error {
	status, err := h.table.Status()
	body := map[string]interface{}{
		"status": status,
		"rows":   h.table.Store().Len(),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.JSON(http.StatusOK, body)
}

// --- TABLE ---

// queryActions turns query parameters into reducer actions. Only the
// parameters present in the request are applied.
func queryActions(c echo.Context) ([]engine.Action, error) {
	var actions []engine.Action
	q := c.QueryParams()

	if q.Has("search") {
		actions = append(actions, engine.SetSearch{Query: q.Get("search")})
	}
	if q.Has("industry") {
		actions = append(actions, engine.SetIndustry{Value: q.Get("industry")})
	}
	if q.Has("country") {
		actions = append(actions, engine.SetCountry{Value: q.Get("country")})
	}
	if q.Has("date") {
		b, err := engine.ParseDateBucket(q.Get("date"))
		if err != nil {
			return nil, err
		}
		actions = append(actions, engine.SetDateBucket{Bucket: b})
	}
	if q.Has("sort") {
		raw, _ := json.Marshal(map[string]string{"column": q.Get("sort"), "direction": q.Get("dir")})
		a, err := engine.DecodeAction("set_sort", raw)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	if q.Has("page_size") {
		size, err := strconv.Atoi(q.Get("page_size"))
		if err != nil || size <= 0 {
			return nil, errors.New("page_size must be a positive integer")
		}
		actions = append(actions, engine.SetPageSize{Size: size})
	}
	// page last: page_size and search reset it
	if q.Has("page") {
		page, err := strconv.Atoi(q.Get("page"))
		if err != nil || page <= 0 {
			return nil, errors.New("page must be a positive integer")
		}
		actions = append(actions, engine.SetPage{Page: page})
	}
	return actions, nil
}

// GetContacts returns the current view. Query parameters are dispatched as
// actions on the one shared table state, so they persist for every client
// and a repeated GET is not side-effect free. Use a bare GET to read.
func (h *Handler) GetContacts(c echo.Context) error {
	actions, err := queryActions(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.table.Dispatch(actions...))
}

type actionRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PostActions accepts one action object or an array of them.
func (h *Handler) PostActions(c echo.Context) error {
	var raw json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	var reqs []actionRequest
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &reqs); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid action list")
		}
	} else {
		var one actionRequest
		if err := json.Unmarshal(raw, &one); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		reqs = []actionRequest{one}
	}

	actions := make([]engine.Action, 0, len(reqs))
	for _, r := range reqs {
		a, err := engine.DecodeAction(r.Type, r.Payload)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		actions = append(actions, a)
	}
	return c.JSON(http.StatusOK, h.table.Dispatch(actions...))
}

func (h *Handler) GetSelected(c echo.Context) error {
	rows := h.table.SelectedRows()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  rows,
		"total": len(rows),
	})
}

func (h *Handler) GetFacets(c echo.Context) error {
	return c.JSON(http.StatusOK, h.table.Store().Facets())
}

func (h *Handler) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.table.State())
}

func (h *Handler) PutState(c echo.Context) error {
	var s engine.State
	if err := json.NewDecoder(c.Request().Body).Decode(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.table.Replace(s))
}

// --- ANALYTICS ---

func (h *Handler) GetAnalytics(c echo.Context) error {
	data, err := h.table.Dashboard()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, data)
}

// --- MAP ---

func (h *Handler) Geocode(c echo.Context) error {
	address, city, country := c.QueryParam("address"), c.QueryParam("city"), c.QueryParam("country")
	if address == "" && city == "" && country == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "address, city or country is required")
	}

	res := h.geocoder.SmartGeocode(c.Request().Context(), address, city, country)
	if res == nil {
		return echo.NewHTTPError(http.StatusNotFound, "location not found")
	}
	return c.JSON(http.StatusOK, res)
}

// GetContactLocation places a contact on the map, falling back to the world
// centroid (flagged approximate) when nothing resolves.
func (h *Handler) GetContactLocation(c echo.Context) error {
	row, ok := h.table.Store().Find(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "contact not found")
	}

	res := h.geocoder.SmartGeocode(c.Request().Context(), row.Address, row.City, row.Country)
	if res == nil {
		def := geo.DefaultLocation()
		res = &def
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"contact":  row,
		"location": res,
	})
}

// --- SESSION ---

func (h *Handler) GetSession(c echo.Context) error {
	u, ok := h.sessions.CurrentUser(c.Request())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Login(c echo.Context) error {
	var u session.User
	if err := c.Bind(&u); err != nil {
		return err
	}
	if err := h.sessions.Login(c.Response(), c.Request(), u); err != nil {
		if errors.Is(err, session.ErrInvalidUser) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	h.log.Info("demo sign-in", zap.String("email", u.Email))
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Response(), c.Request()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
