package server

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/shoecare/internal/authorization"
	obscontext "github.com/smallbiznis/shoecare/internal/observability/context"
	"github.com/smallbiznis/shoecare/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	actorRoleHeader = "X-Actor-Role"
	contextRoleKey  = "actor_role"
)

// ActorRole resolves the caller role from the request header. A missing or
// unknown role is rejected before any handler runs.
func (s *Server) ActorRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := authorization.NormalizeRole(c.GetHeader(actorRoleHeader))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := obscontext.WithActorRole(c.Request.Context(), role)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextRoleKey, role)
		c.Next()
	}
}

func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(contextRoleKey)
		if strings.TrimSpace(role) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Authorize(c.Request.Context(), role, object, action); err != nil {
			switch {
			case errors.Is(err, authorization.ErrForbidden):
				AbortWithError(c, ErrForbidden)
			case errors.Is(err, authorization.ErrInvalidRole):
				AbortWithError(c, ErrUnauthorized)
			default:
				logger.FromContext(c.Request.Context()).Error("authorization check failed",
					zap.String("object", object),
					zap.String("action", action),
					zap.Error(err),
				)
				AbortWithError(c, err)
			}
			return
		}
		c.Next()
	}
}

// TrackRateLimit throttles public order tracking per client address.
func (s *Server) TrackRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.trackLimiter == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.trackLimiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("track rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if result == nil {
			c.Next()
			return
		}

		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if !result.Allowed {
			s.obsMetrics.RecordTrackingDenied(ctx, "rate_limited")
			retry := int(math.Ceil(result.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
