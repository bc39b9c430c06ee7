package authz

// builtinRole 预置角色：名称、继承的角色、直接授予的路由
type builtinRole struct {
	name     string
	inherits []string
	grants   []Policy
}

// 书店后台预置角色；超级管理员不走 RBAC
var builtinRoles = []builtinRole{
	{
		name:   "readonly_auditor",
		grants: []Policy{{Object: "/admin/*", Action: "GET"}},
	},
	{
		name:     "catalog",
		inherits: []string{"readonly_auditor"},
		grants: []Policy{
			{Object: "/admin/discounts", Action: "*"},
			{Object: "/admin/discounts/:id", Action: "*"},
		},
	},
	{
		name:     "fulfillment",
		inherits: []string{"readonly_auditor"},
		grants: []Policy{
			{Object: "/admin/orders/:id/shipping", Action: "PATCH"},
			{Object: "/admin/orders/:id/cancel", Action: "POST"},
		},
	},
	{
		name:     "finance",
		inherits: []string{"readonly_auditor"},
		grants: []Policy{
			{Object: "/admin/orders/:id/confirm-payment", Action: "POST"},
			{Object: "/admin/orders/:id/cancel", Action: "POST"},
		},
	},
}

// BuiltinRoleNames 预置角色名
func BuiltinRoleNames() []string {
	names := make([]string, 0, len(builtinRoles))
	for _, role := range builtinRoles {
		names = append(names, role.name)
	}
	return names
}

// BootstrapBuiltinRoles 写入预置角色的策略，重复执行不会产生重复规则
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, role := range builtinRoles {
		for _, grant := range role.grants {
			if err := s.Grant(role.name, grant); err != nil {
				return err
			}
		}
		for _, parent := range role.inherits {
			if err := s.Inherit(role.name, parent); err != nil {
				return err
			}
		}
	}
	return nil
}
