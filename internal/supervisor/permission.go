package supervisor

import (
	"github.com/kestrel-labs/orchsup/internal/permcache"
)

// pendingPermission remembers what a permission ID was about between a
// permission.updated event and its permission.replied reply (spec §4.F /
// §10 "Permission hook (exposed)").
type pendingPermission struct {
	orchestratorID string
	permissionType string
	patterns       []string
}

// HandlePermissionUpdated routes a host permission.updated event: it
// records what the permission ID is about so a later permission.replied
// event can be filed under the right orchestrator/type/pattern key. Events
// for a child session the registry doesn't know about are ignored.
func (s *Supervisor) HandlePermissionUpdated(childID, permissionID, permissionType string, rawPatterns any) {
	orchestratorID, ok := s.registry.GetOrchestratorSessionID(childID)
	if !ok {
		return
	}
	s.permMu.Lock()
	defer s.permMu.Unlock()
	s.pendingPermissions[permissionID] = pendingPermission{
		orchestratorID: orchestratorID,
		permissionType: permissionType,
		patterns:       permcache.NormalizePatterns(rawPatterns),
	}
}

// HandlePermissionReplied routes a host permission.replied event into the
// decision cache: "always" memoizes an allow, "reject" memoizes a deny,
// anything else (e.g. a one-time "once") is dropped without being cached,
// per spec §4.F.
func (s *Supervisor) HandlePermissionReplied(permissionID, response string) {
	s.permMu.Lock()
	pending, ok := s.pendingPermissions[permissionID]
	if ok {
		delete(s.pendingPermissions, permissionID)
	}
	s.permMu.Unlock()
	if !ok {
		return
	}
	s.permCache.Record(pending.orchestratorID, pending.permissionType, pending.patterns, permcache.Reply(response))
}

// CheckPermission implements the permission hook: given a permission
// request in a child's session, translate to its orchestrator and consult
// the decision cache. Returns "allow", "deny", or "" (no cached decision,
// the host must still ask).
func (s *Supervisor) CheckPermission(childID, permissionType, pattern string) string {
	orchestratorID, ok := s.registry.GetOrchestratorSessionID(childID)
	if !ok {
		return ""
	}
	switch s.permCache.Lookup(orchestratorID, permissionType, pattern) {
	case permcache.Allow:
		return "allow"
	case permcache.Deny:
		return "deny"
	default:
		return ""
	}
}
