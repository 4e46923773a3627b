package http

import (
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/locallens/internal/core/domain"
)

type addPOIRequest struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Description string   `json:"description"`
}

type searchRequest struct {
	Query  string   `json:"query"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Radius *float64 `json:"radius"`
}

type sendAreaRequest struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Radius *float64 `json:"radius"`
}

// legacyStatus writes the {"status","message"} shape the widget expects from /add_poi.
func legacyStatus(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(fiber.Map{"status": "error", "message": msg})
}

// AddPOIHandler stores a POI submitted from the map.
// POST /add_poi {"lat","lng","description"} → {"status":"success"}
func AddPOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req addPOIRequest
		if err := c.BodyParser(&req); err != nil {
			return legacyStatus(c, fiber.StatusBadRequest, "invalid request body")
		}
		if req.Lat == nil || req.Lng == nil {
			return legacyStatus(c, fiber.StatusBadRequest, "lat and lng are required")
		}

		poi, err := deps.POIs.Add(c.UserContext(), *req.Lat, *req.Lng, req.Description)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				return legacyStatus(c, fiber.StatusBadRequest, err.Error())
			}
			LoggerFromCtx(c.UserContext()).Error("add poi failed", "error", err)
			return legacyStatus(c, fiber.StatusInternalServerError, "could not store point of interest")
		}

		LoggerFromCtx(c.UserContext()).Info("poi added", "id", poi.ID)
		return c.JSON(fiber.Map{"status": "success"})
	}
}

// GetPOIsHandler returns every stored POI as a bare array.
// GET /get_pois
func GetPOIsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pois, err := deps.POIs.List(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(pois)
	}
}

// SearchHandler answers a free-text query with the POIs around the origin as context.
// POST /search {"query","lat","lng","radius"} → {"result":"<html>"}
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lng == nil || req.Radius == nil {
			return errBadRequest(c, "query, lat, lng and radius are required")
		}

		result, err := deps.Search.Search(c.UserContext(), req.Query, *req.Lat, *req.Lng, *req.Radius)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"result": result})
	}
}

// SendAreaHandler forwards the area of interest for asynchronous digestion.
// POST /send-to-llm {"lat","lng","radius"} → 202 {"status":"queued","id"}
func SendAreaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req sendAreaRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lng == nil || req.Radius == nil {
			return errBadRequest(c, "lat, lng and radius are required")
		}
		if math.IsNaN(*req.Radius) || math.IsInf(*req.Radius, 0) {
			return errBadRequest(c, "radius must be a finite number")
		}

		area, err := deps.Areas.Forward(c.UserContext(), *req.Lat, *req.Lng, int(math.Round(*req.Radius)))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued", "id": area.ID})
	}
}

// ListPOIsHandler is the paginated successor of /get_pois.
// GET /v1/pois?offset=&limit=
func ListPOIsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pois, err := deps.POIs.List(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := pageFromQuery(c, len(pois))
		start, end := pg.window()
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: pois[start:end], Pagination: pg})
	}
}

// NearbyPOIsHandler returns the POIs inside a circle.
// GET /v1/pois/nearby?lat=&lng=&radius=
func NearbyPOIsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return errBadRequest(c, "lat and lng query parameters are required")
		}
		lat := c.QueryFloat("lat", math.NaN())
		lng := c.QueryFloat("lng", math.NaN())
		radius := c.QueryFloat("radius", domain.DefaultRadiusMeters)
		if radius > 50000 {
			return errBadRequest(c, "radius must not exceed 50000 meters")
		}

		pois, err := deps.POIs.Within(c.UserContext(), lat, lng, radius)
		if err != nil {
			return errFromDomain(c, err)
		}
		if pois == nil {
			pois = []domain.PointOfInterest{}
		}
		return c.JSON(pois)
	}
}
