package httpapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kavinm/tn-district-weather/internal/store"
)

// Refresher triggers fetch job runs and reports snapshot freshness.
// *runner.Runner implements it.
type Refresher interface {
	Stale() bool
	TriggerAsync(reason string) bool
	Run(ctx context.Context, reason string) (string, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, st *store.FileStore, jobs Refresher) {
	api := app.Group("/api")

	api.Get("/data", func(c *fiber.Ctx) error {
		// Serve what we have; freshen in the background.
		if jobs.Stale() {
			jobs.TriggerAsync("api")
		}

		data, err := st.Raw()
		if err != nil {
			if errors.Is(err, store.ErrNoSnapshot) {
				c.Status(fiber.StatusServiceUnavailable)
				return c.JSON(fiber.Map{"error": "weather data is not available yet; try again shortly"})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather data")
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	})

	api.Post("/refresh", func(c *fiber.Ctx) error {
		runID, err := jobs.Run(c.UserContext(), "manual")
		if err != nil {
			c.Status(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{"ok": false, "error": err.Error()})
		}

		snap, err := st.Load()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "refresh finished but snapshot is unreadable")
		}
		return c.JSON(fiber.Map{"ok": true, "run_id": runID, "data": snap})
	})
}
