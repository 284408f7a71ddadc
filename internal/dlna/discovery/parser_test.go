package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <device>
    <deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType>
    <friendlyName>Living Room TV</friendlyName>
    <manufacturer>Acme</manufacturer>
    <modelName>Screencast 9000</modelName>
    <UDN>uuid:11111111-2222-3333-4444-555555555555</UDN>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType>
        <controlURL>/AVTransport/control</controlURL>
        <eventSubURL>/AVTransport/event</eventSubURL>
      </service>
      <service>
        <serviceType>urn:schemas-upnp-org:service:RenderingControl:1</serviceType>
        <controlURL>http://10.0.0.9:49152/RenderingControl/control</controlURL>
        <eventSubURL>RenderingControl/event</eventSubURL>
      </service>
    </serviceList>
    <deviceList>
      <device>
        <UDN>uuid:99999999-8888-7777-6666-555555555555</UDN>
      </device>
    </deviceList>
  </device>
</root>`

func TestParseDeviceDescription(t *testing.T) {
	desc, err := ParseDeviceDescription([]byte(sampleDescription), "http://10.0.0.9:49152/desc/device.xml")
	require.NoError(t, err)

	require.Equal(t, "Living Room TV", desc.FriendlyName)
	require.Equal(t, "Acme", desc.Manufacturer)
	require.Equal(t, "Screencast 9000", desc.ModelName)
	require.Equal(t, "11111111-2222-3333-4444-555555555555", desc.UDN)
	require.Len(t, desc.Services, 2)
}

func TestParseDeviceDescriptionResolvesControlURLs(t *testing.T) {
	desc, err := ParseDeviceDescription([]byte(sampleDescription), "http://10.0.0.9:49152/desc/device.xml")
	require.NoError(t, err)

	av := desc.FindService("urn:schemas-upnp-org:service:AVTransport:1")
	require.NotNil(t, av)
	// Host-relative reference resolves against the description host.
	require.Equal(t, "http://10.0.0.9:49152/AVTransport/control", av.ControlURL)

	rc := desc.FindService("urn:schemas-upnp-org:service:RenderingControl:1")
	require.NotNil(t, rc)
	// Absolute reference passes through untouched.
	require.Equal(t, "http://10.0.0.9:49152/RenderingControl/control", rc.ControlURL)
	// Path-relative reference resolves against the description directory.
	require.Equal(t, "http://10.0.0.9:49152/desc/RenderingControl/event", rc.EventSubURL)
}

func TestParseDeviceDescriptionKeepsFirstUDN(t *testing.T) {
	desc, err := ParseDeviceDescription([]byte(sampleDescription), "http://10.0.0.9:49152/desc/device.xml")
	require.NoError(t, err)
	require.Equal(t, "11111111-2222-3333-4444-555555555555", desc.UDN)
}

func TestFindServiceIgnoresVersion(t *testing.T) {
	desc := &DeviceDescription{Services: []ServiceEntry{
		{ServiceType: "urn:schemas-upnp-org:service:AVTransport:2", ControlURL: "http://x/ctl"},
	}}
	require.NotNil(t, desc.FindService("urn:schemas-upnp-org:service:AVTransport:1"))
	require.Nil(t, desc.FindService("urn:schemas-upnp-org:service:ConnectionManager:1"))
}
