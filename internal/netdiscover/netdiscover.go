// Package netdiscover advertises a running supervisor's control socket on
// the local network (SPEC_FULL.md §11) so orchsupctl/internal/tui
// instances on other machines can find it without a configured address.
// It is pure convenience: disabled by default, and its failure never
// blocks the supervisor from serving its control socket.
//
// Grounded on the teacher's otherwise-unused hashicorp/mdns dependency;
// there is no prior teacher file to adapt, so this package follows
// hashicorp/mdns's own advertise-a-service idiom (NewMDNSService +
// NewServer) directly.
package netdiscover

import (
	"fmt"
	"os"

	"github.com/hashicorp/mdns"

	"github.com/kestrel-labs/orchsup/internal/debug"
)

const (
	serviceName = "_orchsup._tcp"
	domain      = "local."
)

// Advertiser wraps the mDNS server advertising one supervisor instance.
type Advertiser struct {
	server *mdns.Server
}

// Advertise publishes a service record for a supervisor identified by
// instanceID (typically the orchestrator session ID or host name) listening
// on the control socket described by sockPath, which is carried in the TXT
// record as "socket=<sockPath>". port is informational only (control
// sockets are addressed by path, not port) and is published as the
// service record's port.
func Advertise(instanceID, sockPath string, port int) (*Advertiser, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	info := []string{
		fmt.Sprintf("socket=%s", sockPath),
	}
	svc, err := mdns.NewMDNSService(instanceID, serviceName, domain, "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("netdiscover: building service record: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: svc})
	if err != nil {
		return nil, fmt.Errorf("netdiscover: starting mdns server: %w", err)
	}

	debug.LogKV("netdiscover", "advertising control socket", "instance", instanceID, "host", host, "service", serviceName)
	return &Advertiser{server: server}, nil
}

// Shutdown stops advertising. Safe to call on a nil Advertiser.
func (a *Advertiser) Shutdown() error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown()
}
