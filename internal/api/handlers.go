package api

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/pkg/models"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReviewRequest is the request body for POST /api/v1/reviews. Quality is
// decoded as a number so that fractional grades can be rejected.
type ReviewRequest struct {
	ConceptID        string   `json:"concept_id"`
	Quality          *float64 `json:"quality"`
	TimeTakenMinutes *float64 `json:"time_taken_minutes"`
	Confidence       *float64 `json:"confidence"`
}

// ReviewResponse is the response body for POST /api/v1/reviews.
type ReviewResponse struct {
	Success bool `json:"success"`
	*review.Result
}

// DueResponse is the response body for GET /api/v1/reviews/due.
type DueResponse struct {
	Items []models.MemoryState `json:"items"`
	Count int                  `json:"count"`
}

// DayLoadResponse is one entry of GET /api/v1/reviews/schedule.
type DayLoadResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ConceptRequest is the request body for POST /api/v1/concepts.
type ConceptRequest struct {
	ConceptID    string `json:"concept_id"`
	ConceptTitle string `json:"concept_title"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleRecordReview(c echo.Context) error {
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid review request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Quality == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "quality field is required")
	}
	q := *req.Quality
	if q != math.Trunc(q) || q < 0 || q > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "quality must be an integer from 0 to 5")
	}

	res, err := s.svc.RecordReview(c.Request().Context(), userID(c), review.Request{
		ConceptID:        req.ConceptID,
		Quality:          int(q),
		TimeTakenMinutes: req.TimeTakenMinutes,
		Confidence:       req.Confidence,
	})
	if err != nil {
		return s.errorResponse(err)
	}
	return c.JSON(http.StatusOK, ReviewResponse{Success: true, Result: res})
}

func (s *Server) handleDue(c echo.Context) error {
	asOf, err := s.asOf(c)
	if err != nil {
		return err
	}

	items, err := s.svc.DueItems(c.Request().Context(), userID(c), asOf)
	if err != nil {
		return s.errorResponse(err)
	}
	return c.JSON(http.StatusOK, DueResponse{Items: items, Count: len(items)})
}

func (s *Server) handleSchedule(c echo.Context) error {
	asOf, err := s.asOf(c)
	if err != nil {
		return err
	}

	loads, err := s.svc.UpcomingSchedule(c.Request().Context(), userID(c), asOf)
	if err != nil {
		return s.errorResponse(err)
	}

	out := make([]DayLoadResponse, 0, len(loads))
	for _, l := range loads {
		out = append(out, DayLoadResponse{Date: l.DateString(), Count: l.Count})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAddConcept(c echo.Context) error {
	var req ConceptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	state, created, err := s.svc.AddConcept(c.Request().Context(), userID(c), req.ConceptID, req.ConceptTitle)
	if err != nil {
		return s.errorResponse(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, state)
}

func (s *Server) handleRemoveConcept(c echo.Context) error {
	if err := s.svc.RemoveConcept(c.Request().Context(), userID(c), c.Param("concept_id")); err != nil {
		return s.errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// asOf reads the as_of query parameter, defaulting to the service clock.
func (s *Server) asOf(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("as_of")
	if raw == "" {
		return s.svc.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("as_of must be RFC3339: %v", err))
	}
	return t, nil
}
