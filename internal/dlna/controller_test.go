package dlna

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starfreedomx/ktv-cast-go/internal/apperrors"
)

func descriptionXML(friendlyName, udn string, withAVTransport bool) string {
	services := ""
	if withAVTransport {
		services += `<service>
  <serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType>
  <controlURL>/av/control</controlURL>
</service>`
	}
	services += `<service>
  <serviceType>urn:schemas-upnp-org:service:RenderingControl:1</serviceType>
  <controlURL>/rc/control</controlURL>
</service>`

	udnElem := ""
	if udn != "" {
		udnElem = "<UDN>uuid:" + udn + "</UDN>"
	}

	return `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <device>
    <friendlyName>` + friendlyName + `</friendlyName>
    ` + udnElem + `
    <serviceList>` + services + `</serviceList>
  </device>
</root>`
}

func TestDeviceFromLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(descriptionXML("Bedroom TV", "abcd-1234", true)))
	}))
	defer srv.Close()

	controller := NewController(2*time.Second, time.Second, nil)
	device, err := controller.DeviceFromLocation(context.Background(), srv.URL+"/desc.xml")
	require.NoError(t, err)

	require.Equal(t, "Bedroom TV", device.FriendlyName)
	require.Equal(t, "abcd-1234", device.UDN)
	require.Equal(t, srv.URL+"/av/control", device.AVTransport.ControlURL)
	require.True(t, device.HasRenderingControl())
	require.Equal(t, srv.URL+"/rc/control", device.RenderingControl.ControlURL)
}

func TestDeviceFromLocationNoAVTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(descriptionXML("Speaker", "abcd", false)))
	}))
	defer srv.Close()

	controller := NewController(2*time.Second, time.Second, nil)
	_, err := controller.DeviceFromLocation(context.Background(), srv.URL+"/desc.xml")
	require.Error(t, err)
	require.Equal(t, apperrors.ErrorCodeParseFailed, apperrors.CodeOf(err))
}

func TestDeviceFromLocationSynthesizesUDN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(descriptionXML("NoName", "", true)))
	}))
	defer srv.Close()

	controller := NewController(2*time.Second, time.Second, nil)
	first, err := controller.DeviceFromLocation(context.Background(), srv.URL+"/desc.xml")
	require.NoError(t, err)
	require.NotEmpty(t, first.UDN)

	second, err := controller.DeviceFromLocation(context.Background(), srv.URL+"/desc.xml")
	require.NoError(t, err)
	require.Equal(t, first.UDN, second.UDN)
}

func TestDeviceFromLocationHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	controller := NewController(2*time.Second, time.Second, nil)
	_, err := controller.DeviceFromLocation(context.Background(), srv.URL+"/desc.xml")
	require.Equal(t, apperrors.ErrorCodeDeviceUnreachable, apperrors.CodeOf(err))
}

func TestTargetIP(t *testing.T) {
	d := &Device{Location: "http://192.168.1.20:49152/desc.xml"}
	require.Equal(t, "192.168.1.20", d.TargetIP())

	d = &Device{Location: "::not a url::"}
	require.Equal(t, "", d.TargetIP())
}
