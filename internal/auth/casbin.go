package auth

import (
	"log"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	appmodel "bookstack.io/internal/model"
)

// InitCasbin defines the RBAC model and initializes the enforcer with
// the GORM adapter. The enforcer is the single authorization-policy
// function for the whole API: (role, path, method) -> allow/deny.
// Ownership checks (a user touching another user's notifications) are
// finer-grained than path matching and live in the services.
func InitCasbin(db *gorm.DB) (*casbin.Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}

	// r = request (who, what, how)
	// p = policy (who, what, how)
	// g = role hierarchy
	text := `
		[request_definition]
		r = sub, obj, act

		[policy_definition]
		p = sub, obj, act

		[role_definition]
		g = _, _

		[policy_effect]
		e = some(where (p.eft == allow))

		[matchers]
		m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
	`
	// keyMatch2 supports URL parameters like /notifications/:id/read

	m, err := model.NewModelFromString(text)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}

	policies, _ := enforcer.GetPolicy()
	if len(policies) == 0 {
		log.Println("Casbin: No policies found, seeding default library policies...")
		if err := seedDefaultPolicies(enforcer); err != nil {
			log.Printf("Failed to seed default policies: %v", err)
		}
	}

	log.Println("Casbin initialized successfully")
	return enforcer, nil
}

// seedDefaultPolicies installs the role hierarchy and per-role grants.
// admin inherits librarian inherits user.
func seedDefaultPolicies(enforcer *casbin.Enforcer) error {
	rules := [][]string{
		// Members: own profile, own loans, own notifications.
		{appmodel.RoleUser, "/api/auth/profile", "(GET)|(PUT)"},
		{appmodel.RoleUser, "/api/auth/password", "PUT"},
		{appmodel.RoleUser, "/api/auth/logout", "POST"},
		{appmodel.RoleUser, "/api/borrowings/:id", "GET"},
		{appmodel.RoleUser, "/api/borrowings/user/:userId", "GET"},
		{appmodel.RoleUser, "/api/notifications/user/:userId", "GET"},
		{appmodel.RoleUser, "/api/notifications/user/:userId/read-all", "PUT"},
		{appmodel.RoleUser, "/api/notifications/:id/read", "PUT"},
		{appmodel.RoleUser, "/api/notifications/:id", "DELETE"},

		// Librarians: catalog mutation, loan desk, broadcasts, member lookup.
		{appmodel.RoleLibrarian, "/api/books", "POST"},
		{appmodel.RoleLibrarian, "/api/books/:id", "(PUT)|(DELETE)"},
		{appmodel.RoleLibrarian, "/api/borrowings", "(GET)|(POST)"},
		{appmodel.RoleLibrarian, "/api/borrowings/:id/return", "PUT"},
		{appmodel.RoleLibrarian, "/api/notifications", "POST"},
		{appmodel.RoleLibrarian, "/api/users", "GET"},
		{appmodel.RoleLibrarian, "/api/users/:id", "GET"},

		// Admins: everything under /api.
		{appmodel.RoleAdmin, "/api/*", "(GET)|(POST)|(PUT)|(DELETE)"},
	}

	for _, rule := range rules {
		if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
			return err
		}
	}

	groupings := [][]string{
		{appmodel.RoleLibrarian, appmodel.RoleUser},
		{appmodel.RoleAdmin, appmodel.RoleLibrarian},
	}
	for _, g := range groupings {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}

	return enforcer.SavePolicy()
}
