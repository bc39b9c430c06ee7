package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	routePrefix = "/api/v1"
	policyTable = "casbin_rule"
	rolePrefix  = "role:"
)

// 后台只按角色授权，管理员本身不直接挂策略
const adminRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

var (
	// ErrUnavailable 授权服务未初始化
	ErrUnavailable = errors.New("authz service unavailable")
	// ErrRoleRequired 角色名为空
	ErrRoleRequired = errors.New("role is required")
	// ErrUnknownRole 角色未定义任何权限
	ErrUnknownRole = errors.New("unknown role")
	// ErrAdminRequired 管理员 ID 为空
	ErrAdminRequired = errors.New("admin id is required")
)

// Policy 角色可访问的后台路由
type Policy struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

// RoleView 角色及其继承关系、直接授予的策略
type RoleView struct {
	Name     string   `json:"name"`
	Inherits []string `json:"inherits"`
	Policies []Policy `json:"policies"`
}

// Service 后台 RBAC，策略经 gorm adapter 存入 casbin_rule 表
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务并加载已有策略
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz: %w", ErrUnavailable)
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", policyTable)
	if err != nil {
		return nil, fmt.Errorf("authz adapter: %w", err)
	}
	m, err := model.NewModelFromString(adminRBACModel)
	if err != nil {
		return nil, fmt.Errorf("authz model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("authz enforcer: %w", err)
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz load policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// Allow 判断管理员能否以 method 访问路由 path
func (s *Service) Allow(adminID uint, method, path string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if adminID == 0 {
		return false, ErrAdminRequired
	}
	return s.enforcer.Enforce(adminSubject(adminID), RouteObject(path), normalizeAction(method))
}

// Grant 为角色授予一条路由权限
func (s *Service) Grant(role string, policy Policy) error {
	if err := s.ready(); err != nil {
		return err
	}
	subject, err := roleSubject(role)
	if err != nil {
		return err
	}
	action := normalizeAction(policy.Action)
	if action == "" {
		return fmt.Errorf("grant %s: action is required", role)
	}
	if _, err := s.enforcer.AddPolicy(subject, RouteObject(policy.Object), action); err != nil {
		return fmt.Errorf("grant %s: %w", role, err)
	}
	return nil
}

// Inherit 让 role 继承 parent 的全部权限
func (s *Service) Inherit(role, parent string) error {
	if err := s.ready(); err != nil {
		return err
	}
	child, err := roleSubject(role)
	if err != nil {
		return err
	}
	base, err := roleSubject(parent)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddGroupingPolicy(child, base); err != nil {
		return fmt.Errorf("inherit %s -> %s: %w", role, parent, err)
	}
	return nil
}

// ListRoles 列出所有已定义的角色
func (s *Service) ListRoles() ([]RoleView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	subjects, err := s.enforcer.GetAllSubjects()
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	grouping, err := s.enforcer.GetGroupingPolicy()
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	views := make(map[string]*RoleView)
	view := func(subject string) *RoleView {
		name := strings.TrimPrefix(subject, rolePrefix)
		if v, ok := views[name]; ok {
			return v
		}
		v := &RoleView{Name: name, Inherits: []string{}, Policies: []Policy{}}
		views[name] = v
		return v
	}
	for _, subject := range subjects {
		if strings.HasPrefix(subject, rolePrefix) {
			view(subject)
		}
	}
	for _, rule := range grouping {
		if len(rule) < 2 || !strings.HasPrefix(rule[0], rolePrefix) {
			continue
		}
		v := view(rule[0])
		v.Inherits = append(v.Inherits, strings.TrimPrefix(rule[1], rolePrefix))
	}
	for _, v := range views {
		rules, err := s.enforcer.GetFilteredPolicy(0, rolePrefix+v.Name)
		if err != nil {
			return nil, fmt.Errorf("list roles: %w", err)
		}
		for _, rule := range rules {
			if len(rule) >= 3 {
				v.Policies = append(v.Policies, Policy{Object: rule[1], Action: rule[2]})
			}
		}
		sort.Strings(v.Inherits)
		sort.Slice(v.Policies, func(i, j int) bool {
			if v.Policies[i].Object != v.Policies[j].Object {
				return v.Policies[i].Object < v.Policies[j].Object
			}
			return v.Policies[i].Action < v.Policies[j].Action
		})
	}

	result := make([]RoleView, 0, len(views))
	for _, v := range views {
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// SetAdminRoles 用 roles 覆盖管理员当前角色，未定义的角色返回 ErrUnknownRole
func (s *Service) SetAdminRoles(adminID uint, roles []string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if adminID == 0 {
		return ErrAdminRequired
	}
	known, err := s.knownRoles()
	if err != nil {
		return err
	}
	subjects := make([]string, 0, len(roles))
	for _, role := range roles {
		subject, err := roleSubject(role)
		if err != nil {
			return err
		}
		if _, ok := known[subject]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRole, role)
		}
		subjects = append(subjects, subject)
	}

	admin := adminSubject(adminID)
	if _, err := s.enforcer.RemoveFilteredGroupingPolicy(0, admin); err != nil {
		return fmt.Errorf("clear roles of %s: %w", admin, err)
	}
	for _, subject := range subjects {
		if _, err := s.enforcer.AddGroupingPolicy(admin, subject); err != nil {
			return fmt.Errorf("assign %s to %s: %w", subject, admin, err)
		}
	}
	return nil
}

// GetAdminRoles 查询管理员直接拥有的角色名
func (s *Service) GetAdminRoles(adminID uint) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if adminID == 0 {
		return nil, ErrAdminRequired
	}
	subjects, err := s.enforcer.GetRolesForUser(adminSubject(adminID))
	if err != nil {
		return nil, fmt.Errorf("roles of admin %d: %w", adminID, err)
	}
	roles := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if strings.HasPrefix(subject, rolePrefix) {
			roles = append(roles, strings.TrimPrefix(subject, rolePrefix))
		}
	}
	sort.Strings(roles)
	return roles, nil
}

func (s *Service) knownRoles() (map[string]struct{}, error) {
	subjects, err := s.enforcer.GetAllSubjects()
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	known := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		if strings.HasPrefix(subject, rolePrefix) {
			known[subject] = struct{}{}
		}
	}
	return known, nil
}

// NormalizeRole 校验并统一角色名：去空白、小写、空格转下划线
func NormalizeRole(role string) (string, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(role)), rolePrefix)
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return "", ErrRoleRequired
	}
	return name, nil
}

// RouteObject 去掉 /api/v1 前缀，得到策略中使用的路由
func RouteObject(path string) string {
	object := strings.TrimSpace(path)
	if !strings.HasPrefix(object, "/") {
		object = "/" + object
	}
	if object == routePrefix {
		return "/"
	}
	if strings.HasPrefix(object, routePrefix+"/") {
		return strings.TrimPrefix(object, routePrefix)
	}
	return object
}

func roleSubject(role string) (string, error) {
	name, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	return rolePrefix + name, nil
}

func adminSubject(adminID uint) string {
	return fmt.Sprintf("admin:%d", adminID)
}

func normalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
