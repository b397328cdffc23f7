package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/shoecare/internal/audit/domain"
	"github.com/smallbiznis/shoecare/internal/audit/masking"
	"github.com/smallbiznis/shoecare/internal/clock"
	obscontext "github.com/smallbiznis/shoecare/internal/observability/context"
	obslogger "github.com/smallbiznis/shoecare/internal/observability/logger"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// AuditLog records who did what to which shop record. A blank targetType is
// taken from the action prefix, so "order.settle" lands under "order".
func (s *Service) AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error {
	entry, err := s.newEntry(ctx, action, targetType, targetID, metadata)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		obslogger.WithContext(ctx, s.log).Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("target_type", entry.TargetType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) newEntry(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) (*auditdomain.AuditLog, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return nil, auditdomain.ErrInvalidAction
	}

	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType, _, _ = strings.Cut(action, ".")
	}

	role := obscontext.ActorRoleFromContext(ctx)
	if role == "" {
		role = auditdomain.ActorRoleSystem
	}

	entry := &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorRole:  role,
		Action:     action,
		TargetType: targetType,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  s.clock.Now().UTC(),
	}
	if targetID != nil {
		if id := strings.TrimSpace(*targetID); id != "" {
			entry.TargetID = &id
		}
	}
	if masked := masking.MaskJSON(metadata); masked != nil {
		entry.Metadata = datatypes.JSONMap(masked)
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		entry.RequestID = &requestID
	}
	return entry, nil
}

// List pages through the trail newest first.
func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	filter := auditdomain.ListFilter{
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		TargetType: strings.TrimSpace(req.TargetType),
		TargetID:   strings.TrimSpace(req.TargetID),
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
	}
	size := pagination.NormalizeSize(req.PageSize)
	rows, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{PageToken: req.PageToken, PageSize: size})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	rows, pageInfo := pagination.BuildCursorPageInfo(rows, size, cursorFor)
	resp := auditdomain.ListAuditLogResponse{
		PageInfo:  pageInfo,
		AuditLogs: make([]auditdomain.AuditLog, 0, len(rows)),
	}
	for _, row := range rows {
		if row != nil {
			resp.AuditLogs = append(resp.AuditLogs, *row)
		}
	}
	return resp, nil
}

func cursorFor(entry *auditdomain.AuditLog) string {
	token, err := pagination.EncodeCursor(pagination.Cursor{
		ID:        entry.ID.String(),
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return ""
	}
	return token
}
