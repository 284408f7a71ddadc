package soap

// Endpoint addresses one UPnP service on a renderer. Generic DLNA devices
// publish their control URLs in the device description, so every action
// call carries the endpoint rather than assuming fixed paths.
type Endpoint struct {
	ServiceType string
	ControlURL  string
}

const (
	ServiceTypeAVTransport      = "urn:schemas-upnp-org:service:AVTransport:1"
	ServiceTypeRenderingControl = "urn:schemas-upnp-org:service:RenderingControl:1"
)

// Arg is a single SOAP action argument. Order is preserved in the envelope
// because some renderers validate argument order against the service SCPD.
type Arg struct {
	Name  string
	Value string
}

// TransportInfo mirrors the GetTransportInfo response.
type TransportInfo struct {
	CurrentTransportState  string
	CurrentTransportStatus string
	CurrentSpeed           string
}

// Transport states reported by AVTransport:1 renderers.
const (
	StateStopped        = "STOPPED"
	StatePlaying        = "PLAYING"
	StatePausedPlayback = "PAUSED_PLAYBACK"
	StateTransitioning  = "TRANSITIONING"
	StateNoMediaPresent = "NO_MEDIA_PRESENT"
)

// PositionInfo mirrors the GetPositionInfo response (subset).
type PositionInfo struct {
	Track         int
	TrackDuration string
	TrackURI      string
	RelTime       string
	AbsTime       string
}

// VolumeInfo mirrors the GetVolume response.
type VolumeInfo struct {
	CurrentVolume int
}
