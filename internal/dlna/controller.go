package dlna

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/starfreedomx/ktv-cast-go/internal/apperrors"
	"github.com/starfreedomx/ktv-cast-go/internal/dlna/discovery"
	"github.com/starfreedomx/ktv-cast-go/internal/dlna/soap"
)

// Controller drives renderers over SSDP + SOAP.
type Controller struct {
	soapClient  *soap.Client
	httpClient  *http.Client
	ssdpTimeout time.Duration
	logger      *log.Logger
}

// NewController creates a Controller. soapTimeout bounds every SOAP call,
// ssdpTimeout bounds one discovery pass.
func NewController(soapTimeout, ssdpTimeout time.Duration, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		soapClient:  soap.NewClient(soapTimeout),
		httpClient:  &http.Client{Timeout: soapTimeout},
		ssdpTimeout: ssdpTimeout,
		logger:      logger,
	}
}

// DiscoverDevices runs one SSDP search window and returns renderers that
// expose AVTransport, deduplicated by UDN. An empty list is not an error.
func (c *Controller) DiscoverDevices(ctx context.Context) ([]Device, error) {
	responses, err := discovery.Discover(ctx, c.ssdpTimeout)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeDiscoveryFailed, "ssdp search failed", err)
	}

	seen := make(map[string]struct{})
	devices := make([]Device, 0, len(responses))
	for _, resp := range responses {
		device, err := c.DeviceFromLocation(ctx, resp.Location)
		if err != nil {
			c.logger.Printf("skipping %s: %v", resp.Location, err)
			continue
		}
		if _, dup := seen[device.UDN]; dup {
			continue
		}
		seen[device.UDN] = struct{}{}
		devices = append(devices, *device)
	}
	return devices, nil
}

// DeviceFromLocation fetches and parses a device description and builds a
// Device. Fails if the description lacks an AVTransport service.
func (c *Controller) DeviceFromLocation(ctx context.Context, location string) (*Device, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeParseFailed, "bad description url", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeDeviceUnreachable, "fetch device description", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ErrorCodeDeviceUnreachable,
			fmt.Sprintf("device description returned http %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeDeviceUnreachable, "read device description", err)
	}

	desc, err := discovery.ParseDeviceDescription(payload, location)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeParseFailed, "parse device description", err)
	}

	avTransport := desc.FindService(soap.ServiceTypeAVTransport)
	if avTransport == nil || avTransport.ControlURL == "" {
		return nil, apperrors.New(apperrors.ErrorCodeParseFailed, "device has no AVTransport service")
	}

	device := &Device{
		FriendlyName: desc.FriendlyName,
		Location:     location,
		UDN:          desc.UDN,
		AVTransport: soap.Endpoint{
			ServiceType: avTransport.ServiceType,
			ControlURL:  avTransport.ControlURL,
		},
	}
	if device.FriendlyName == "" {
		device.FriendlyName = location
	}
	if device.UDN == "" {
		// Some renderers omit the UDN; synthesize one so dedup still works.
		device.UDN = uuid.NewSHA1(uuid.NameSpaceURL, []byte(location)).String()
	}

	if rc := desc.FindService(soap.ServiceTypeRenderingControl); rc != nil && rc.ControlURL != "" {
		device.RenderingControl = soap.Endpoint{
			ServiceType: rc.ServiceType,
			ControlURL:  rc.ControlURL,
		}
	}

	return device, nil
}

// SetAVTransportURI points the renderer at uri. metadata may be a
// DIDL-Lite fragment or empty.
func (c *Controller) SetAVTransportURI(ctx context.Context, device *Device, uri, metadata string) error {
	return c.soapClient.SetAVTransportURI(ctx, device.AVTransport, uri, metadata)
}

func (c *Controller) Play(ctx context.Context, device *Device) error {
	return c.soapClient.Play(ctx, device.AVTransport)
}

func (c *Controller) Pause(ctx context.Context, device *Device) error {
	return c.soapClient.Pause(ctx, device.AVTransport)
}

func (c *Controller) Stop(ctx context.Context, device *Device) error {
	return c.soapClient.Stop(ctx, device.AVTransport)
}

func (c *Controller) Seek(ctx context.Context, device *Device, seconds int) error {
	return c.soapClient.Seek(ctx, device.AVTransport, seconds)
}

// PositionInfo returns (currentSeconds, totalSeconds). Renderers that do
// not implement RelTime/TrackDuration yield zeros.
func (c *Controller) PositionInfo(ctx context.Context, device *Device) (int, int, error) {
	info, err := c.soapClient.GetPositionInfo(ctx, device.AVTransport)
	if err != nil {
		return 0, 0, err
	}
	return soap.ParseClockTime(info.RelTime), soap.ParseClockTime(info.TrackDuration), nil
}

// TransportState returns the renderer's transport state string.
func (c *Controller) TransportState(ctx context.Context, device *Device) (string, error) {
	info, err := c.soapClient.GetTransportInfo(ctx, device.AVTransport)
	if err != nil {
		return "", err
	}
	return info.CurrentTransportState, nil
}

func (c *Controller) GetVolume(ctx context.Context, device *Device) (int, error) {
	if !device.HasRenderingControl() {
		return 0, apperrors.New(apperrors.ErrorCodeValidationError, "device has no RenderingControl service")
	}
	info, err := c.soapClient.GetVolume(ctx, device.RenderingControl)
	if err != nil {
		return 0, err
	}
	return info.CurrentVolume, nil
}

func (c *Controller) SetVolume(ctx context.Context, device *Device, level int) error {
	if !device.HasRenderingControl() {
		return apperrors.New(apperrors.ErrorCodeValidationError, "device has no RenderingControl service")
	}
	return c.soapClient.SetVolume(ctx, device.RenderingControl, level)
}
