package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timeroll/internal/domain"
	"timeroll/internal/duration"
	"timeroll/internal/errors"
	"timeroll/internal/logging"
	"timeroll/internal/rollup"
	"timeroll/internal/service"
)

// Timestamps cross the boundary as RFC3339 strings; durations stay in
// whole microseconds with a human rendering alongside.

type entryResponse struct {
	ID            string  `json:"id"`
	EntityType    string  `json:"entity_type"`
	EntityID      string  `json:"entity_id"`
	PersonID      *string `json:"person_id,omitempty"`
	Description   *string `json:"description,omitempty"`
	StartTime     string  `json:"start_time"`
	EndTime       *string `json:"end_time,omitempty"`
	DurationUs    *int64  `json:"duration_us,omitempty"`
	DurationHuman string  `json:"duration_human,omitempty"`
	Running       bool    `json:"running"`
}

type runningTimerResponse struct {
	Entry        entryResponse `json:"entry"`
	ElapsedUs    int64         `json:"elapsed_us"`
	ElapsedHuman string        `json:"elapsed_human"`
}

type breakdownResponse struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Name       string `json:"name,omitempty"`
	TotalUs    int64  `json:"total_us"`
	TotalHuman string `json:"total_human"`
}

type summaryResponse struct {
	EntityType          string              `json:"entity_type"`
	EntityID            string              `json:"entity_id"`
	Name                string              `json:"name,omitempty"`
	DirectUs            int64               `json:"direct_us"`
	ChildrenUs          int64               `json:"children_us"`
	TotalUs             int64               `json:"total_us"`
	TotalHuman          string              `json:"total_human"`
	CurrentSessionUs    int64               `json:"current_session_us"`
	CurrentSessionHuman string              `json:"current_session_human,omitempty"`
	HasRunningTimer     bool                `json:"has_running_timer"`
	RunningEntry        *entryResponse      `json:"running_entry,omitempty"`
	Entries             []entryResponse     `json:"entries"`
	ChildrenBreakdown   []breakdownResponse `json:"children_breakdown"`
}

type startTimerRequest struct {
	PersonID    *string `json:"person_id"`
	Description *string `json:"description"`
}

type createEntryRequest struct {
	EntityType  string  `json:"entity_type"`
	EntityID    string  `json:"entity_id"`
	PersonID    *string `json:"person_id"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time"`
	DurationUs  *int64  `json:"duration_us"`
}

type updateEntryRequest struct {
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	DurationUs  *int64  `json:"duration_us"`
	PersonID    *string `json:"person_id"`
	Description *string `json:"description"`
}

func (s *Server) handleStartTimer(c *gin.Context) {
	var req startTimerRequest
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			return // BindJSON already wrote a 400
		}
	}

	outcome, err := s.service.StartTimer(c.Request.Context(), c.Param("entity_type"), c.Param("entity_id"), req.PersonID, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"success": true,
		"started": toEntryResponse(outcome.Started),
	}
	if outcome.Replaced != nil {
		resp["replaced"] = toEntryResponse(outcome.Replaced)
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleStopTimer(c *gin.Context) {
	entry, err := s.service.StopTimer(c.Request.Context(), c.Param("entity_type"), c.Param("entity_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stopped": toEntryResponse(entry),
	})
}

func (s *Server) handleStopAllTimers(c *gin.Context) {
	result, err := s.service.StopAllTimers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	stopped := make([]entryResponse, 0, len(result.Entries))
	for _, entry := range result.Entries {
		stopped = append(stopped, toEntryResponse(entry))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"stopped_count": result.StoppedCount,
		"stopped_ids":   result.StoppedIDs,
		"stopped":       stopped,
	})
}

func (s *Server) handleListRunningTimers(c *gin.Context) {
	timers, err := s.service.ListRunningTimers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	running := make([]runningTimerResponse, 0, len(timers))
	for _, t := range timers {
		running = append(running, runningTimerResponse{
			Entry:        toEntryResponse(t.Entry),
			ElapsedUs:    t.ElapsedUs,
			ElapsedHuman: t.ElapsedHuman,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"running": running,
		"count":   len(running),
	})
}

func (s *Server) handleCreateEntry(c *gin.Context) {
	var req createEntryRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}

	startTime, err := parseTimestamp(req.StartTime, "start_time")
	if err != nil {
		respondError(c, err)
		return
	}
	endTime, err := parseOptionalTimestamp(req.EndTime, "end_time")
	if err != nil {
		respondError(c, err)
		return
	}

	entry, err := s.service.AddManualEntry(c.Request.Context(), service.ManualEntryRequest{
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		PersonID:    req.PersonID,
		Description: req.Description,
		StartTime:   startTime,
		EndTime:     endTime,
		DurationUs:  req.DurationUs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"entry":   toEntryResponse(entry),
	})
}

func (s *Server) handleUpdateEntry(c *gin.Context) {
	var req updateEntryRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}

	patch := service.EntryPatch{
		DurationUs:  req.DurationUs,
		PersonID:    req.PersonID,
		Description: req.Description,
	}

	startTime, err := parseOptionalTimestamp(req.StartTime, "start_time")
	if err != nil {
		respondError(c, err)
		return
	}
	patch.StartTime = startTime

	endTime, err := parseOptionalTimestamp(req.EndTime, "end_time")
	if err != nil {
		respondError(c, err)
		return
	}
	patch.EndTime = endTime

	entry, err := s.service.UpdateEntry(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entry":   toEntryResponse(entry),
	})
}

func (s *Server) handleDeleteEntry(c *gin.Context) {
	if err := s.service.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "entry deleted",
	})
}

func (s *Server) handleGetSummary(c *gin.Context) {
	summary, err := s.service.GetSummary(c.Request.Context(), c.Param("entity_type"), c.Param("entity_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": toSummaryResponse(summary),
	})
}

func toEntryResponse(entry *domain.TimeEntry) entryResponse {
	resp := entryResponse{
		ID:          entry.ID,
		EntityType:  string(entry.EntityType),
		EntityID:    entry.EntityID,
		PersonID:    entry.PersonID,
		Description: entry.Description,
		StartTime:   entry.StartTime.UTC().Format(time.RFC3339Nano),
		DurationUs:  entry.DurationUs,
		Running:     entry.IsRunning(),
	}
	if entry.EndTime != nil {
		endTime := entry.EndTime.UTC().Format(time.RFC3339Nano)
		resp.EndTime = &endTime
	}
	if entry.DurationUs != nil {
		resp.DurationHuman = duration.Format(*entry.DurationUs)
	}
	return resp
}

func toSummaryResponse(summary *rollup.Summary) summaryResponse {
	resp := summaryResponse{
		EntityType:        string(summary.EntityType),
		EntityID:          summary.EntityID,
		Name:              summary.Name,
		DirectUs:          summary.DirectUs,
		ChildrenUs:        summary.ChildrenUs,
		TotalUs:           summary.TotalUs,
		TotalHuman:        duration.Format(summary.TotalUs),
		CurrentSessionUs:  summary.CurrentSessionUs,
		HasRunningTimer:   summary.HasRunningTimer,
		Entries:           make([]entryResponse, 0, len(summary.Entries)),
		ChildrenBreakdown: make([]breakdownResponse, 0, len(summary.ChildrenBreakdown)),
	}
	if summary.HasRunningTimer {
		resp.CurrentSessionHuman = duration.Format(summary.CurrentSessionUs)
	}
	if summary.RunningEntry != nil {
		running := toEntryResponse(summary.RunningEntry)
		resp.RunningEntry = &running
	}
	for _, entry := range summary.Entries {
		resp.Entries = append(resp.Entries, toEntryResponse(entry))
	}
	for _, item := range summary.ChildrenBreakdown {
		resp.ChildrenBreakdown = append(resp.ChildrenBreakdown, breakdownResponse{
			EntityType: string(item.EntityType),
			EntityID:   item.EntityID,
			Name:       item.Name,
			TotalUs:    item.TotalUs,
			TotalHuman: duration.Format(item.TotalUs),
		})
	}
	return resp
}

func parseTimestamp(value, field string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, errors.NewInvalidInputError(field, value, "must be an RFC3339 timestamp")
	}
	return t, nil
}

func parseOptionalTimestamp(value *string, field string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseTimestamp(*value, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// respondError maps application errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	if errors.ShouldLogError(err) {
		logging.Debugf("httpapi: %v\n", err)
	}

	status := http.StatusInternalServerError
	if appErr, ok := errors.AsAppError(err); ok {
		switch appErr.Type {
		case errors.ErrorTypeValidation, errors.ErrorTypeInvalidInput:
			status = http.StatusBadRequest
		case errors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case errors.ErrorTypeConflict:
			status = http.StatusConflict
		}
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   errors.GetUserMessage(err),
		"code":    errors.GetErrorCode(err),
	})
}
