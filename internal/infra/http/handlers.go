package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sc3/internal/domain"
	"sc3/internal/usecase"
)

type verifyRequest struct {
	Bundle            domain.Bundle `json:"bundle"`
	TimeBound         *time.Time    `json:"time_bound,omitempty"`
	SeverityThreshold string        `json:"severity_threshold,omitempty"`
}

func (s *Server) handleVerify(c *gin.Context) {
	if !s.enforceRateLimit(c, "verify") {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid verify request: "+err.Error())
		return
	}

	var timeBound time.Time
	if req.TimeBound != nil {
		timeBound = *req.TimeBound
	}
	var override *domain.Severity
	if req.SeverityThreshold != "" {
		severity, err := domain.ParseSeverity(req.SeverityThreshold)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		override = &severity
	}

	result, err := s.orchestrator.Verify(c.Request.Context(), req.Bundle, timeBound, override)
	if err != nil {
		writeErrorCode(c, http.StatusInternalServerError, "VERIFICATION_ERROR", err.Error())
		return
	}
	if s.results != nil {
		if err := s.results.Save(c.Request.Context(), result); err != nil {
			s.log.WithError(err).WithField("verification", result.ID).Warn("persist verification result failed")
		}
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleQuickVerify(c *gin.Context) {
	if !s.enforceRateLimit(c, "verify-quick") {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid verify request: "+err.Error())
		return
	}
	passed, failures := s.orchestrator.QuickVerify(req.Bundle)
	c.JSON(http.StatusOK, gin.H{"passed": passed, "failures": failures})
}

func (s *Server) handleGetResult(c *gin.Context) {
	if s.results == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "NO_DB", "result storage is not configured")
		return
	}
	result, err := s.results.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "verification result not found")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetReport(c *gin.Context) {
	if s.results == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "NO_DB", "result storage is not configured")
		return
	}
	result, err := s.results.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "verification result not found")
			return
		}
		writeErrorCode(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(usecase.Report(result)))
}

func (s *Server) handleListLogs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": s.logStore.List()})
}

func (s *Server) handleGetLog(c *gin.Context) {
	log, err := s.logStore.Get(c.Param("log_id"))
	if err != nil {
		writeLogStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

type verifyLogRequest struct {
	ArtifactHashes []string   `json:"artifact_hashes,omitempty"`
	TimeBound      *time.Time `json:"time_bound,omitempty"`
}

func (s *Server) handleVerifyLog(c *gin.Context) {
	if !s.enforceRateLimit(c, "logs-verify") {
		return
	}
	var req verifyLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid log verify request: "+err.Error())
		return
	}
	log, err := s.logStore.Get(c.Param("log_id"))
	if err != nil {
		writeLogStoreError(c, err)
		return
	}
	reqs := usecase.LogRequirements{ArtifactHashes: req.ArtifactHashes}
	if req.TimeBound != nil {
		reqs.TimeBound = *req.TimeBound
	}
	c.JSON(http.StatusOK, s.logVerifier.VerifyLog(log, reqs))
}

type createLogRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAdminCreateLog(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req createLogRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "log name is required")
		return
	}
	log := s.logStore.Create(strings.TrimSpace(req.Name))
	if s.logRepo != nil {
		if err := s.logRepo.SaveLog(c.Request.Context(), log); err != nil {
			s.log.WithError(err).WithField("log", log.ID).Warn("persist log failed")
		}
	}
	c.JSON(http.StatusCreated, log)
}

type appendEntryRequest struct {
	Type         string         `json:"type,omitempty"`
	ArtifactHash string         `json:"artifact_hash,omitempty"`
	BuildID      string         `json:"build_id,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
}

func (s *Server) handleAdminAppendEntry(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req appendEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid append request: "+err.Error())
		return
	}
	logID := c.Param("log_id")
	entry, err := s.logStore.Append(logID, usecase.LogAppendInput{
		Type:         domain.LogEntryType(req.Type),
		ArtifactHash: req.ArtifactHash,
		BuildID:      req.BuildID,
		Payload:      req.Payload,
	})
	if err != nil {
		writeLogStoreError(c, err)
		return
	}
	if s.logRepo != nil {
		log, getErr := s.logStore.Get(logID)
		if getErr == nil {
			if err := s.logRepo.AppendEntry(c.Request.Context(), logID, entry, log.HeadHash); err != nil {
				s.log.WithError(err).WithField("log", logID).Warn("persist log entry failed")
			}
		}
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleAdminSealLog(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	logID := c.Param("log_id")
	if err := s.logStore.Seal(logID); err != nil {
		writeLogStoreError(c, err)
		return
	}
	if s.logRepo != nil {
		if err := s.logRepo.Seal(c.Request.Context(), logID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.log.WithError(err).WithField("log", logID).Warn("persist log seal failed")
		}
	}
	c.JSON(http.StatusOK, gin.H{"sealed": true})
}

func writeLogStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "log not found")
	case errors.Is(err, domain.ErrLogSealed):
		writeErrorCode(c, http.StatusConflict, "LOG_SEALED", "log is sealed")
	default:
		writeErrorCode(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
	}
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}
