package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"unicode"

	"videotube/internal/media"
	"videotube/internal/middleware"
	"videotube/internal/models"
	"videotube/internal/relview"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respondErr writes err with the status its kind maps to.
func respondErr(c *fiber.Ctx, err error) error {
	if status := models.StatusOf(err); status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err.Error())
	}
	return models.RespondWithError(c, models.StatusOf(err), err)
}

func badRequest(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = badRequest(c, "Invalid "+humanizeParam(param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "videoId" -> "video ID", "subscriberId" -> "subscriber ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parsePage reads page and limit. Out-of-range values are normalized by
// relview rather than rejected: a limit above relview.MaxLimit is served as
// MaxLimit, and the page body's "limit" field carries the value actually
// applied so clients can detect the cap.
func parsePage(c *fiber.Ctx) relview.PageRequest {
	return relview.PageRequest{
		Page:  c.QueryInt("page", relview.DefaultPage),
		Limit: c.QueryInt("limit", relview.DefaultLimit),
	}
}

// parseSort reads sortBy with sortType, accepting sortDirection as an alias.
func parseSort(c *fiber.Ctx) relview.SortSpec {
	direction := c.Query("sortType")
	if direction == "" {
		direction = c.Query("sortDirection")
	}
	return relview.ParseSort(c.Query("sortBy"), direction)
}

// listQuery is the sort, window and viewer of a list request.
func listQuery(c *fiber.Ctx) relview.Query {
	return relview.Query{
		Sort:   parseSort(c),
		Page:   parsePage(c),
		Viewer: middleware.ViewerFrom(c),
	}
}

// uploads tracks the multipart files opened by one request.
type uploads struct {
	files []multipart.File
}

func (u *uploads) Close() {
	for _, f := range u.files {
		_ = f.Close()
	}
}

// formFile opens the named multipart file as a media object. A missing
// field yields nil without error; required checks live in the services.
func (s *Server) formFile(c *fiber.Ctx, u *uploads, field string) (*media.Object, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return nil, nil
		}
		return nil, models.NewValidationError("Invalid upload for " + field)
	}

	if limit := int64(s.config.MediaMaxUploadSizeMB) * 1024 * 1024; limit > 0 && header.Size > limit {
		return nil, models.NewValidationError(fmt.Sprintf("%s exceeds the %d MB upload limit", field, s.config.MediaMaxUploadSizeMB))
	}

	f, err := header.Open()
	if err != nil {
		return nil, models.NewValidationError("Invalid upload for " + field)
	}
	u.files = append(u.files, f)

	return &media.Object{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        f,
	}, nil
}
