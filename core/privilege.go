package core

import (
	"fmt"
	"os/user"
	"strconv"
	"syscall"
)

// privilegeModule names this file's log module, matching the
// teacher's pattern of a small stringer type per logical component.
type privilegeModule struct{}

func (privilegeModule) String() string { return "Privilege" }

var logPrivilege privilegeModule

// FatalExitPrivilegeDrop is the process exit code used when dropping
// privileges fails: fatal, terminates with a dedicated exit code.
const FatalExitPrivilegeDrop = 4

// Privilege resolves the target (normal) uid/gid once at startup and
// drops to them on request. There is no raise/runElevated here: the
// daemon never needs to re-elevate once faces are open and listening
// sockets are bound, unlike the original which reopens privileged
// ports on reconfiguration.
type Privilege struct {
	normalUid int
	normalGid int
	hasTarget bool
}

// NewPrivilege resolves userName/groupName (the general.user /
// general.group config keys) into numeric ids. Empty strings mean "no drop
// requested" and Drop becomes a no-op.
func NewPrivilege(userName, groupName string) (*Privilege, error) {
	p := &Privilege{}
	if userName == "" && groupName == "" {
		return p, nil
	}
	p.hasTarget = true

	if groupName != "" {
		g, err := user.LookupGroup(groupName)
		if err != nil {
			return nil, fmt.Errorf("resolving group %q: %w", groupName, err)
		}
		gid, err := strconv.Atoi(g.Gid)
		if err != nil {
			return nil, fmt.Errorf("group %q has non-numeric gid %q", groupName, g.Gid)
		}
		p.normalGid = gid
	}

	if userName != "" {
		u, err := user.Lookup(userName)
		if err != nil {
			return nil, fmt.Errorf("resolving user %q: %w", userName, err)
		}
		uid, err := strconv.Atoi(u.Uid)
		if err != nil {
			return nil, fmt.Errorf("user %q has non-numeric uid %q", userName, u.Uid)
		}
		p.normalUid = uid
	}

	return p, nil
}

// Drop drops the process's effective uid/gid to the resolved target,
// group first then user so the process never runs with an elevated
// gid and a dropped uid. A failure here is unrecoverable: the process
// would otherwise keep running privileged, so the caller should treat
// it as fatal via core.Log.Fatal with
// FatalExitPrivilegeDrop.
func (p *Privilege) Drop() error {
	if !p.hasTarget {
		return nil
	}
	Log.Trace(logPrivilege, "dropping to effective gid", "gid", p.normalGid)
	if err := syscall.Setegid(p.normalGid); err != nil {
		return fmt.Errorf("failed to drop to effective gid=%d: %w", p.normalGid, err)
	}
	Log.Trace(logPrivilege, "dropping to effective uid", "uid", p.normalUid)
	if err := syscall.Seteuid(p.normalUid); err != nil {
		return fmt.Errorf("failed to drop to effective uid=%d: %w", p.normalUid, err)
	}
	Log.Info(logPrivilege, "dropped privileges", "uid", p.normalUid, "gid", p.normalGid)
	return nil
}
