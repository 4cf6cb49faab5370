package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servicehours/hours-hub/internal/application/command"
	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/leaderboard"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/infrastructure/scheduler"
	"github.com/servicehours/hours-hub/internal/interface/http/handlers"
	pkglogger "github.com/servicehours/hours-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST BODIES
// ══════════════════════════════════════════════════════════════════════════════

type createAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type logHoursRequest struct {
	StaffID     string `json:"staffID"`
	StudentID   string `json:"studentID"`
	Hours       int    `json:"hours"`
	Description string `json:"description"`
}

type confirmHoursRequest struct {
	StaffID string `json:"staffID"`
}

type requestConfirmationRequest struct {
	StudentID string `json:"studentID"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(c *gin.Context) {
	if s.deps.HealthChecker == nil {
		writeJSON(c, http.StatusOK, gin.H{"healthy": true})
		return
	}

	status := s.deps.HealthChecker.Check(c.Request.Context())
	if !status.Healthy {
		writeJSON(c, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(c, http.StatusOK, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCreateStudent(c *gin.Context) {
	s.createAccount(c, account.UserTypeStudent)
}

func (s *Server) handleCreateStaff(c *gin.Context) {
	s.createAccount(c, account.UserTypeStaff)
}

func (s *Server) createAccount(c *gin.Context, userType account.UserType) {
	var req createAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := s.deps.RegisterAccount.Handle(c.Request.Context(), command.RegisterAccountCommand{
		Username: req.Username,
		Password: req.Password,
		UserType: userType,
		Name:     req.Name,
		Email:    req.Email,
	})
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	if result.Student != nil {
		writeJSON(c, http.StatusCreated, result.Student.ToMap())
		return
	}
	writeJSON(c, http.StatusCreated, result.Staff.ToMap())
}

func (s *Server) handleListStudents(c *gin.Context) {
	students, err := s.deps.Accounts.Students(c.Request.Context())
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	out := make([]map[string]any, len(students))
	for i, st := range students {
		out[i] = st.ToMap()
	}
	writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleGetStudent(c *gin.Context) {
	st, err := s.deps.Accounts.Student(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st.ToMap())
}

func (s *Server) handleGetStudentByUsername(c *gin.Context) {
	st, err := s.deps.Accounts.StudentByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st.ToMap())
}

func (s *Server) handleListAccolades(c *gin.Context) {
	list, err := s.deps.Accounts.Accolades(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, accolade.MapAll(list))
}

func (s *Server) handleListRequests(c *gin.Context) {
	list, err := s.deps.Accounts.Requests(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	out := make([]map[string]any, len(list))
	for i, r := range list {
		out[i] = r.ToMap()
	}
	writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleListStaff(c *gin.Context) {
	staff, err := s.deps.Accounts.StaffMembers(c.Request.Context())
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	out := make([]map[string]any, len(staff))
	for i, sf := range staff {
		out[i] = sf.ToMap()
	}
	writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleGetStaff(c *gin.Context) {
	sf, err := s.deps.Accounts.Staff(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sf.ToMap())
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER & CONFIRMATION
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleLogHours(c *gin.Context) {
	var req logHoursRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := s.deps.LogHours.Handle(c.Request.Context(), command.LogHoursCommand{
		StaffID:     req.StaffID,
		StudentID:   req.StudentID,
		Hours:       req.Hours,
		Description: req.Description,
	})
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, result.Entry.ToMap())
}

func (s *Server) handleGetEntry(c *gin.Context) {
	e, err := s.deps.Accounts.Entry(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, e.ToMap())
}

func (s *Server) handleConfirmHours(c *gin.Context) {
	var req confirmHoursRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := s.deps.ConfirmHours.Handle(c.Request.Context(), command.ConfirmHoursCommand{
		StaffID: req.StaffID,
		EntryID: c.Param("id"),
	})
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, gin.H{
		"entry":            result.Entry.ToMap(),
		"totalHours":       result.TotalHours,
		"newAccolades":     accolade.MapAll(result.NewAccolades),
		"approvedRequests": result.ApprovedRequests,
	})
}

func (s *Server) handleRequestConfirmation(c *gin.Context) {
	var req requestConfirmationRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := s.deps.RequestConfirmation.Handle(c.Request.Context(), command.RequestConfirmationCommand{
		StudentID: req.StudentID,
		EntryID:   c.Param("id"),
	})
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, request.ToMap())
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKINGS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleLeaderboard(c *gin.Context) {
	standings, err := s.deps.Rankings.Standings(c.Request.Context())
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	if raw, ok := c.GetQuery("top"); ok {
		top, err := strconv.Atoi(raw)
		if err != nil || top < 0 {
			writeError(c, http.StatusBadRequest, "validation_error", "top must be a non-negative integer")
			return
		}
		if top < len(standings) {
			standings = standings[:top]
		}
	}

	writeJSON(c, http.StatusOK, mapStandings(standings))
}

func (s *Server) handleGenerateRankings(c *gin.Context) {
	students, err := s.deps.Rankings.GenerateRankings(c.Request.Context())
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	standings := leaderboard.NewRanking(students).Standings()
	writeJSON(c, http.StatusOK, mapStandings(standings))
}

// defaultPublishedTop is used when ?top is absent on the published leaderboard.
const defaultPublishedTop = 10

func (s *Server) handlePublishedLeaderboard(c *gin.Context) {
	if s.deps.Published == nil {
		writeError(c, http.StatusNotFound, "not_found", "leaderboard publishing is disabled")
		return
	}

	top := defaultPublishedTop
	if raw, ok := c.GetQuery("top"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "validation_error", "top must be a positive integer")
			return
		}
		top = n
	}

	ctx := c.Request.Context()
	meta, err := s.deps.Published.GetMeta(ctx)
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	standings, err := s.deps.Published.GetTop(ctx, top)
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, gin.H{
		"meta":      meta,
		"standings": mapStandings(standings),
	})
}

func (s *Server) handlePublishedRank(c *gin.Context) {
	if s.deps.Published == nil {
		writeError(c, http.StatusNotFound, "not_found", "leaderboard publishing is disabled")
		return
	}

	id := c.Param("studentID")
	rank, err := s.deps.Published.GetRank(c.Request.Context(), id)
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"studentID": id, "rank": int(rank)})
}

func mapStandings(standings []leaderboard.Standing) []map[string]any {
	out := make([]map[string]any, len(standings))
	for i, st := range standings {
		out[i] = st.ToMap()
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// JOBS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListJobs(c *gin.Context) {
	if s.deps.Jobs == nil {
		writeJSON(c, http.StatusOK, []map[string]any{})
		return
	}

	infos := s.deps.Jobs.ListJobs()
	out := make([]map[string]any, len(infos))
	for i, info := range infos {
		out[i] = jobInfoMap(info)
	}
	writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleGetJob(c *gin.Context) {
	if s.deps.Jobs == nil {
		writeError(c, http.StatusNotFound, "not_found", "scheduler is disabled")
		return
	}

	info, err := s.deps.Jobs.GetJobInfo(c.Param("name"))
	if err != nil {
		writeError(c, http.StatusNotFound, "not_found", err.Error())
		return
	}
	writeJSON(c, http.StatusOK, jobInfoMap(*info))
}

func (s *Server) handleRunJob(c *gin.Context) {
	if s.deps.Jobs == nil {
		writeError(c, http.StatusNotFound, "not_found", "scheduler is disabled")
		return
	}

	result, err := s.deps.Jobs.RunNow(c.Request.Context(), c.Param("name"))
	if errors.Is(err, scheduler.ErrJobNotFound) {
		writeError(c, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if result == nil {
		s.writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, jobResultMap(result))
}

func jobInfoMap(info scheduler.JobInfo) map[string]any {
	m := map[string]any{
		"name":        info.Name,
		"description": info.Description,
		"schedule":    info.Schedule,
		"lastRun":     shared.FormatTime(&info.LastRun),
		"nextRun":     shared.FormatTime(&info.NextRun),
		"runCount":    info.RunCount,
		"failCount":   info.FailCount,
	}
	if info.LastResult != nil {
		m["lastResult"] = jobResultMap(info.LastResult)
	}
	return m
}

// jobResultMap reports failures inline; a failed run is still a 200.
func jobResultMap(r *scheduler.JobResult) map[string]any {
	m := map[string]any{
		"job":       r.JobName,
		"startedAt": shared.FormatTime(&r.StartedAt),
		"duration":  r.Duration.String(),
		"success":   r.Success,
		"manual":    r.Manual,
	}
	if r.Error != nil {
		m["error"] = r.Error.Error()
	}
	return m
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

func writeJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC(), Version: "v1"},
		RequestID: handlers.GetRequestID(c),
	})
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, JSONResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC()},
		RequestID: handlers.GetRequestID(c),
	})
}

// writeDomainError maps error kinds to HTTP statuses.
// Storage failures are logged and never exposed to clients.
func (s *Server) writeDomainError(c *gin.Context, err error) {
	status, code := statusForError(err)
	message := err.Error()

	var de *shared.DomainError
	if errors.As(err, &de) && status != http.StatusInternalServerError {
		message = de.Message
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		pkglogger.FromContext(c.Request.Context()).Error("request failed", "error", err)
		message = "internal server error"
	}

	writeError(c, status, code, message)
}

func statusForError(err error) (int, string) {
	switch {
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	case shared.IsInvalidState(err):
		return http.StatusConflict, "invalid_state"
	case shared.IsConflict(err):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// bindJSON decodes the body; an empty body is treated as an empty object.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return false
	}
	return true
}
