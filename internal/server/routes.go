package server

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/pulse-eco/internal/store"
	"github.com/i474232898/pulse-eco/pkg/pulseeco"
	"github.com/i474232898/pulse-eco/pkg/pulseeco/transport"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, clients ClientFunc, history History) {
	v1 := app.Group("/api/v1/:city", func(c *fiber.Ctx) error {
		q := cityParam{City: c.Params("city")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid city name")
		}
		return c.Next()
	})

	v1.Get("/sensors", func(c *fiber.Ctx) error {
		sensors, err := clients(c.Params("city")).Sensors(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(sensors)
	})

	v1.Get("/sensors/:id", func(c *fiber.Ctx) error {
		sensor, err := clients(c.Params("city")).Sensor(c.UserContext(), c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(sensor)
	})

	v1.Get("/dataRaw", func(c *fiber.Ctx) error {
		var req spanQuery
		if err := req.bind(c); err != nil {
			return toFiberError(err)
		}

		values, err := clients(c.Params("city")).DataRaw(c.UserContext(), pulseeco.RawQuery{
			From:    req.From,
			To:      req.To,
			Filters: req.filters(),
		})
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(values)
	})

	v1.Get("/avgData/:period", func(c *fiber.Ctx) error {
		var req spanQuery
		if err := req.bind(c); err != nil {
			return toFiberError(err)
		}

		values, err := clients(c.Params("city")).AvgData(c.UserContext(), pulseeco.AvgQuery{
			Period:  pulseeco.AveragePeriod(c.Params("period")),
			From:    req.From,
			To:      req.To,
			Filters: req.filters(),
		})
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(values)
	})

	v1.Get("/data24h", dataValues(clients, pulseeco.API.Data24h))
	v1.Get("/current", dataValues(clients, pulseeco.API.Current))

	v1.Get("/overall", func(c *fiber.Ctx) error {
		overall, err := clients(c.Params("city")).Overall(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(overall)
	})

	v1.Get("/overall/history", func(c *fiber.Ctx) error {
		if history == nil {
			return fiber.NewError(fiber.StatusNotFound, "overall history is not being collected")
		}

		var from, to time.Time
		var err error
		if s := c.Query("from"); s != "" {
			if from, err = parseTime(s); err != nil {
				return toFiberError(err)
			}
		}
		if s := c.Query("to"); s != "" {
			if to, err = parseTime(s); err != nil {
				return toFiberError(err)
			}
		}
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			return fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
		}

		city := c.Params("city")
		snapshots, err := history.Range(city, from, to)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no overall history for requested range")
			}
			return toFiberError(err)
		}

		return c.JSON(fiber.Map{
			"city":      city,
			"from":      optionalStamp(from),
			"to":        optionalStamp(to),
			"snapshots": snapshots,
		})
	})
}

func dataValues(clients ClientFunc, op func(pulseeco.API, context.Context) ([]pulseeco.DataValue, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		values, err := op(clients(c.Params("city")), c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(values)
	}
}

type cityParam struct {
	City string `validate:"required,alphanum,max=64"`
}

// spanQuery holds query parameters for the spanned data endpoints.
type spanQuery struct {
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
	SensorID string    `validate:"omitempty,max=64"`
	Type     string    `validate:"omitempty,max=64"`
}

func (q *spanQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	q.From = from
	q.To = to
	q.SensorID = c.Query(pulseeco.ParamSensorID)
	q.Type = c.Query(pulseeco.ParamType)

	return validate.Struct(q)
}

func (q spanQuery) filters() pulseeco.Filters {
	return pulseeco.Filters{SensorID: q.SensorID, Type: pulseeco.DataValueType(q.Type)}
}

// parseTime accepts ISO-8601 (naive means UTC) or unix seconds.
func parseTime(s string) (time.Time, error) {
	ts, err := pulseeco.ParseTimestamp(s)
	if err == nil {
		return ts, nil
	}
	if unix, uerr := strconv.ParseInt(s, 10, 64); uerr == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, err
}

func optionalStamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return pulseeco.FormatTimestamp(t)
}

// toFiberError maps client, transport and store errors to HTTP statuses.
func toFiberError(err error) error {
	var (
		fe *fiber.Error
		te *pulseeco.TimestampError
		ve validator.ValidationErrors
		pe *pulseeco.ValidationError
		se *transport.StatusError
	)
	switch {
	case errors.As(err, &fe):
		return fe
	// Upstream payload errors wrap timestamp and validator errors, so they
	// are matched before the request side.
	case errors.As(err, &pe), errors.Is(err, transport.ErrDecode):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.As(err, &te), errors.As(err, &ve),
		errors.Is(err, pulseeco.ErrInvertedSpan), errors.Is(err, pulseeco.ErrNonPositiveSpan):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &se):
		if se.StatusCode == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, transport.ErrCircuitOpen):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
