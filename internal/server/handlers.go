package server

import (
	"io"
	"journalsummarizer/internal/database"
	"journalsummarizer/internal/handler"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const defaultSummariesLimit = 20

func (s *Server) summarize(c echo.Context) error {
	req := c.Request()

	var body []byte
	if req.Method == http.MethodPost && req.Body != nil {
		var err error
		if body, err = io.ReadAll(req.Body); err != nil {
			return err
		}
	}

	resp := s.handler.Handle(req.Context(), handler.Request{
		Method: req.Method,
		Body:   body,
	})

	if resp.Status == http.StatusMethodNotAllowed {
		c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
	}

	return c.Blob(resp.Status, resp.ContentType, resp.Body)
}

func (s *Server) summaries(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "history is disabled"})
	}

	limit := defaultSummariesLimit
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = min(n, database.MaxRecentSummaries)
	}

	records, err := s.history.RecentSummaries(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"summaries": records,
		"total":     len(records),
	})
}
