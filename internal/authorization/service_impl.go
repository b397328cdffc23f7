package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/shoecare/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectCustomer  = "customer"
	ObjectService   = "service"
	ObjectOrder     = "order"
	ObjectOrderItem = "order_item"
	ObjectExpense   = "expense"
	ObjectAnalytics = "analytics"
	ObjectAuditLog  = "audit_log"
)

const (
	ActionCustomerView   = "customer.view"
	ActionCustomerCreate = "customer.create"

	ActionServiceView   = "service.view"
	ActionServiceCreate = "service.create"
	ActionServiceUpdate = "service.update"
	ActionServiceDelete = "service.delete"

	ActionOrderView    = "order.view"
	ActionOrderCreate  = "order.create"
	ActionOrderDelete  = "order.delete"
	ActionOrderSettle  = "order.settle"
	ActionOrderReceipt = "order.receipt"

	ActionOrderItemUpdate = "order_item.update"

	ActionExpenseView   = "expense.view"
	ActionExpenseCreate = "expense.create"
	ActionExpenseDelete = "expense.delete"

	ActionAnalyticsView   = "analytics.view"
	ActionAnalyticsExport = "analytics.export"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	role, err := NormalizeRole(role)
	if err != nil {
		return err
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(subject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("access denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		s.auditDenied(ctx, role, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, role string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, "authorization.denied", "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
		"role":   role,
	})
}

func subject(role string) string {
	return "role:" + role
}

// seedPolicies grants each role its capabilities. Customers get none; order
// tracking is public.
func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{subject(RoleAdmin), "*", "*"},

		// Supervisor: intake, settlement and finances
		{subject(RoleSupervisor), ObjectOrder, ActionOrderView},
		{subject(RoleSupervisor), ObjectOrder, ActionOrderCreate},
		{subject(RoleSupervisor), ObjectOrder, ActionOrderSettle},
		{subject(RoleSupervisor), ObjectOrder, ActionOrderReceipt},
		{subject(RoleSupervisor), ObjectCustomer, ActionCustomerView},
		{subject(RoleSupervisor), ObjectCustomer, ActionCustomerCreate},
		{subject(RoleSupervisor), ObjectService, ActionServiceView},
		{subject(RoleSupervisor), ObjectExpense, ActionExpenseView},
		{subject(RoleSupervisor), ObjectExpense, ActionExpenseCreate},
		{subject(RoleSupervisor), ObjectAnalytics, ActionAnalyticsView},
		{subject(RoleSupervisor), ObjectAnalytics, ActionAnalyticsExport},

		// Teknisi: intake and item progress
		{subject(RoleTeknisi), ObjectOrder, ActionOrderView},
		{subject(RoleTeknisi), ObjectOrder, ActionOrderCreate},
		{subject(RoleTeknisi), ObjectOrder, ActionOrderReceipt},
		{subject(RoleTeknisi), ObjectOrderItem, ActionOrderItemUpdate},
		{subject(RoleTeknisi), ObjectCustomer, ActionCustomerView},
		{subject(RoleTeknisi), ObjectCustomer, ActionCustomerCreate},
		{subject(RoleTeknisi), ObjectService, ActionServiceView},
		{subject(RoleTeknisi), ObjectExpense, ActionExpenseView},
		{subject(RoleTeknisi), ObjectExpense, ActionExpenseCreate},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
