package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/shoecare/internal/audit/domain"
	"github.com/smallbiznis/shoecare/internal/audit/repository"
	"github.com/smallbiznis/shoecare/internal/audit/service"
	"github.com/smallbiznis/shoecare/internal/clock"
	obscontext "github.com/smallbiznis/shoecare/internal/observability/context"
	"github.com/smallbiznis/shoecare/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuditLogRecordsRoleAndMasksContact(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})

	ctx := obscontext.WithActorRole(context.Background(), "Admin")
	ctx = obscontext.WithRequestID(ctx, "req-1")
	target := "42"
	require.NoError(t, svc.AuditLog(ctx, "order.settle", "order", &target, map[string]any{
		"payment_method": "CASH",
		"whatsapp":       "6281234567890",
	}))
	require.NoError(t, svc.AuditLog(context.Background(), "customer.create", "customer", nil, nil))

	assert.ErrorIs(t, svc.AuditLog(ctx, " ", "order", nil, nil), auditdomain.ErrInvalidAction)

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Action: "order.settle"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	entry := resp.AuditLogs[0]
	assert.Equal(t, "Admin", entry.ActorRole)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "42", *entry.TargetID)
	require.NotNil(t, entry.RequestID)
	assert.Equal(t, "req-1", *entry.RequestID)
	assert.Equal(t, "CASH", entry.Metadata["payment_method"])
	assert.Equal(t, "****7890", entry.Metadata["whatsapp"])

	resp, err = svc.List(context.Background(), auditdomain.ListAuditLogRequest{Action: "customer.create"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, auditdomain.ActorRoleSystem, resp.AuditLogs[0].ActorRole)
}

func TestAuditLogInfersTargetTypeFromAction(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})

	blank := "  "
	require.NoError(t, svc.AuditLog(context.Background(), " Expense.Delete ", "", &blank, nil))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{TargetType: "expense"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	entry := resp.AuditLogs[0]
	assert.Equal(t, "expense.delete", entry.Action)
	assert.Equal(t, "expense", entry.TargetType)
	assert.Nil(t, entry.TargetID)
	assert.Nil(t, entry.RequestID)
	assert.Empty(t, entry.Metadata)
}
