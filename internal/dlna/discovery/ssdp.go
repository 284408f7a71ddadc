package discovery

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"
)

const ssdpAddr = "239.255.255.250:1900"

// Search targets for media renderers. AVTransport is mandatory for
// casting; RenderingControl-only responders are still collected so the
// description fetch can decide.
var searchTargets = []string{
	"urn:schemas-upnp-org:service:AVTransport:1",
	"urn:schemas-upnp-org:service:RenderingControl:1",
}

// Response is one SSDP M-SEARCH answer.
type Response struct {
	Location string
	USN      string
	ST       string
	Headers  map[string]string
	FromIP   string
}

// Discover performs SSDP M-SEARCH for renderer services and collects
// responses for the given window. An empty result is a normal outcome.
func Discover(ctx context.Context, window time.Duration) ([]Response, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	addr, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return nil, err
	}

	for _, target := range searchTargets {
		if err := sendSearch(conn, addr, target); err != nil {
			return nil, err
		}
	}

	deadline := time.Now().Add(window)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	// Deduplicate by description location; the same renderer answers once
	// per search target.
	responses := make(map[string]Response)
	order := make([]string, 0, 8)

	buf := make([]byte, 4096)
	for {
		n, raddr, err := conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break
			}
			return sliceInOrder(responses, order), err
		}

		resp := ParseResponse(string(buf[:n]))
		if resp.Location == "" {
			continue
		}
		resp.FromIP = raddr.String()

		if _, exists := responses[resp.Location]; !exists {
			responses[resp.Location] = resp
			order = append(order, resp.Location)
		}
	}

	return sliceInOrder(responses, order), nil
}

func sendSearch(conn net.PacketConn, addr *net.UDPAddr, target string) error {
	msg := strings.Join([]string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + ssdpAddr,
		"MAN: \"ssdp:discover\"",
		"MX: 2",
		"ST: " + target,
		"",
		"",
	}, "\r\n")

	_, err := conn.WriteTo([]byte(msg), addr)
	return err
}

// ParseResponse parses a raw SSDP response into its headers.
func ParseResponse(raw string) Response {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	headers := make(map[string]string)

	// Skip status line
	if scanner.Scan() {
		// no-op
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		headers[key] = value
	}

	return Response{
		Location: headers["LOCATION"],
		USN:      headers["USN"],
		ST:       headers["ST"],
		Headers:  headers,
	}
}

func sliceInOrder(responses map[string]Response, order []string) []Response {
	result := make([]Response, 0, len(order))
	for _, loc := range order {
		result = append(result, responses[loc])
	}
	return result
}
