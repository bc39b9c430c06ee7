package authz

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:authz_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	return svc
}

func TestBuiltinRolePermissions(t *testing.T) {
	svc := newTestService(t)
	// 重复执行不应报错
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap should be repeatable: %v", err)
	}

	assign := map[uint]string{10: "readonly_auditor", 11: "catalog", 12: "fulfillment", 13: "finance"}
	for adminID, role := range assign {
		if err := svc.SetAdminRoles(adminID, []string{role}); err != nil {
			t.Fatalf("assign %s failed: %v", role, err)
		}
	}

	cases := []struct {
		adminID uint
		method  string
		path    string
		want    bool
	}{
		{10, "GET", "/api/v1/admin/orders", true},
		{10, "GET", "/api/v1/admin/orders/7", true},
		{10, "POST", "/api/v1/admin/orders/7/cancel", false},
		{11, "post", "/api/v1/admin/discounts", true},
		{11, "PUT", "/api/v1/admin/discounts/3", true},
		{11, "GET", "/api/v1/admin/orders", true},
		{11, "POST", "/api/v1/admin/orders/7/confirm-payment", false},
		{12, "PATCH", "/api/v1/admin/orders/7/shipping", true},
		{12, "POST", "/api/v1/admin/orders/7/cancel", true},
		{12, "POST", "/api/v1/admin/orders/7/confirm-payment", false},
		{13, "POST", "/api/v1/admin/orders/7/confirm-payment", true},
		{13, "PATCH", "/api/v1/admin/orders/7/shipping", false},
		{13, "POST", "/api/v1/admin/discounts", false},
		{99, "GET", "/api/v1/admin/orders", false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d %s %s", tc.adminID, tc.method, tc.path), func(t *testing.T) {
			got, err := svc.Allow(tc.adminID, tc.method, tc.path)
			if err != nil {
				t.Fatalf("allow failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %v got %v", tc.want, got)
			}
		})
	}
}

func TestSetAdminRolesReplacesPrevious(t *testing.T) {
	svc := newTestService(t)
	if err := svc.SetAdminRoles(2, []string{"Fulfillment"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{"finance", " readonly auditor "}); err != nil {
		t.Fatalf("set second roles failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 2 || roles[0] != "finance" || roles[1] != "readonly_auditor" {
		t.Fatalf("roles want [finance readonly_auditor] got %v", roles)
	}
	allowed, err := svc.Allow(2, "PATCH", "/api/v1/admin/orders/1/shipping")
	if err != nil {
		t.Fatalf("allow failed: %v", err)
	}
	if allowed {
		t.Fatalf("replaced role should no longer grant shipping updates")
	}

	if err := svc.SetAdminRoles(2, nil); err != nil {
		t.Fatalf("clear roles failed: %v", err)
	}
	if roles, _ := svc.GetAdminRoles(2); len(roles) != 0 {
		t.Fatalf("roles should be empty, got %v", roles)
	}
}

func TestSetAdminRolesRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t)
	if err := svc.SetAdminRoles(2, []string{"warehouse_boss"}); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("unknown role want ErrUnknownRole got %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{"  "}); !errors.Is(err, ErrRoleRequired) {
		t.Fatalf("blank role want ErrRoleRequired got %v", err)
	}
	if err := svc.SetAdminRoles(0, []string{"finance"}); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("zero admin want ErrAdminRequired got %v", err)
	}
	var nilService *Service
	if _, err := nilService.Allow(1, "GET", "/admin/orders"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("nil service want ErrUnavailable got %v", err)
	}
}

func TestListRoles(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Grant("support", Policy{Object: "/api/v1/admin/orders/:id", Action: "get"}); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	byName := make(map[string]RoleView, len(roles))
	for _, role := range roles {
		byName[role.Name] = role
	}
	for _, name := range append(BuiltinRoleNames(), "support") {
		if _, ok := byName[name]; !ok {
			t.Fatalf("role %s missing from %v", name, roles)
		}
	}
	finance := byName["finance"]
	if len(finance.Inherits) != 1 || finance.Inherits[0] != "readonly_auditor" {
		t.Fatalf("finance inherits want [readonly_auditor] got %v", finance.Inherits)
	}
	support := byName["support"]
	if len(support.Policies) != 1 || support.Policies[0] != (Policy{Object: "/admin/orders/:id", Action: "GET"}) {
		t.Fatalf("support policies not normalized: %v", support.Policies)
	}
}

func TestRouteObject(t *testing.T) {
	cases := map[string]string{
		"/api/v1/admin/orders/:id": "/admin/orders/:id",
		"/admin/orders/:id":        "/admin/orders/:id",
		"admin/discounts":          "/admin/discounts",
		"/api/v1":                  "/",
		"/api/v1beta/x":            "/api/v1beta/x",
		"":                         "/",
	}
	for in, want := range cases {
		if got := RouteObject(in); got != want {
			t.Fatalf("RouteObject(%q) want %q got %q", in, want, got)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"finance":           "finance",
		" Readonly Auditor": "readonly_auditor",
		"role:catalog":      "catalog",
	}
	for in, want := range cases {
		got, err := NormalizeRole(in)
		if err != nil || got != want {
			t.Fatalf("NormalizeRole(%q) want %q got %q %v", in, want, got, err)
		}
	}
	if _, err := NormalizeRole("role:"); !errors.Is(err, ErrRoleRequired) {
		t.Fatalf("empty role want ErrRoleRequired got %v", err)
	}
}
