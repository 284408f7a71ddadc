package dlna

import (
	"net"
	"net/url"

	"github.com/starfreedomx/ktv-cast-go/internal/dlna/soap"
)

// Device is one discovered renderer. Immutable after construction; bound
// to at most one engine context at a time.
type Device struct {
	FriendlyName string
	Location     string
	UDN          string

	AVTransport      soap.Endpoint
	RenderingControl soap.Endpoint
}

// HasRenderingControl reports whether volume actions are available.
func (d *Device) HasRenderingControl() bool {
	return d.RenderingControl.ControlURL != ""
}

// TargetIP extracts the renderer's host from the description URL. Used to
// pick the local interface the renderer can reach back on.
func (d *Device) TargetIP() string {
	parsed, err := url.Parse(d.Location)
	if err != nil {
		return ""
	}
	host := parsed.Hostname()
	if host == "" {
		return ""
	}
	if ip := net.ParseIP(host); ip != nil {
		return host
	}
	// Location hosts are IPs in practice; resolve just in case.
	addrs, err := net.LookupHost(host)
	if err != nil || len(addrs) == 0 {
		return host
	}
	return addrs[0]
}
