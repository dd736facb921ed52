package server

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"circle/internal/middleware"
	"circle/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that a helper already committed the response.
// Handlers return nil on it so the ErrorHandler does not overwrite the body.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter as a positive uint, answering 400 otherwise.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = respond(c, models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// queryUint reads a required positive integer query parameter, answering 400 otherwise.
func queryUint(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Query(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = respond(c, models.NewValidationError("Invalid "+humanizeParam(name)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam turns "id" into "ID" and "userId1" into "user ID 1".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	trimmed := strings.TrimRightFunc(param, unicode.IsDigit)
	suffix := param[len(trimmed):]
	if !strings.HasSuffix(trimmed, "Id") {
		return param
	}

	var words []string
	prefix := trimmed[:len(trimmed)-2]
	start := 0
	for i, r := range prefix {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, prefix[start:i])
			start = i
		}
	}
	words = append(words, prefix[start:])

	label := strings.ToLower(strings.Join(words, " ")) + " ID"
	if suffix != "" {
		label += " " + suffix
	}
	return label
}

// parseBody decodes the JSON request body, answering 400 on malformed input.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		_ = respond(c, models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// respond writes err with the status its kind maps to and logs server faults.
func respond(c *fiber.Ctx, err error) error {
	if models.StatusFor(err) >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			"path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, err)
}
