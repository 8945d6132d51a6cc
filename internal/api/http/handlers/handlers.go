package handlers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-docs/internal/api/dto"
	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/service"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

func ok(c *fiber.Ctx, message string, data any) error {
	return c.JSON(dto.OK(message, data))
}

func created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(dto.OK(message, data))
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, found := auth.PrincipalFromContext(c)
	if !found {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", err.Error())
	}
	return nil
}

// pageRequest reads page and pageSize. Missing values take the defaults;
// malformed ones are rejected by the service's range check.
func pageRequest(c *fiber.Ctx) service.PageRequest {
	return service.PageRequest{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", service.DefaultPageSize),
	}
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("validation failed", key+" must be true or false")
	}
	return &v, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("validation failed", field+" must be a date (YYYY-MM-DD or RFC 3339)")
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseOriginKind accepts the numeric code or the wire name.
func parseOriginKind(raw json.RawMessage) (domain.OriginKind, error) {
	value := strings.TrimSpace(string(raw))
	if value == "" || value == "null" {
		return 0, apperrors.NewValidationError("validation failed", "originKind is required")
	}
	if unquoted, err := strconv.Unquote(value); err == nil {
		value = unquoted
	}
	kind, err := domain.ParseOriginKind(value)
	if err != nil {
		return 0, apperrors.NewValidationError("validation failed", "originKind is not a known origin")
	}
	return kind, nil
}

// originConfigText keeps the origin config as the opaque JSON text that is
// stored. A JSON string is unwrapped; an object is kept verbatim.
func originConfigText(raw json.RawMessage) string {
	value := strings.TrimSpace(string(raw))
	if value == "" || value == "null" {
		return ""
	}
	var s string
	if strings.HasPrefix(value, `"`) && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return value
}
