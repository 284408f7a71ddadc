package soap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildEnvelopePreservesArgOrder(t *testing.T) {
	body := buildEnvelope(ServiceTypeAVTransport, "Seek", []Arg{
		{Name: "InstanceID", Value: "0"},
		{Name: "Unit", Value: "REL_TIME"},
		{Name: "Target", Value: "00:01:30"},
	})

	payload := string(body)
	require.Contains(t, payload, `<u:Seek xmlns:u="urn:schemas-upnp-org:service:AVTransport:1">`)

	instance := strings.Index(payload, "<InstanceID>")
	unit := strings.Index(payload, "<Unit>")
	target := strings.Index(payload, "<Target>")
	require.Greater(t, unit, instance)
	require.Greater(t, target, unit)
}

func TestBuildEnvelopeEscapesValues(t *testing.T) {
	body := buildEnvelope(ServiceTypeAVTransport, "SetAVTransportURI", []Arg{
		{Name: "CurrentURI", Value: "http://10.0.0.2:8080/a?b=1&c=2"},
	})
	payload := string(body)
	require.Contains(t, payload, "b=1&amp;c=2")
	require.NotContains(t, payload, "b=1&c=2<")
}

func TestExecuteActionSetsHeaders(t *testing.T) {
	var gotContentType, gotSoapAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotSoapAction = r.Header.Get("SOAPACTION")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(2 * time.Second)
	_, err := client.ExecuteAction(context.Background(), Endpoint{
		ServiceType: ServiceTypeAVTransport,
		ControlURL:  srv.URL,
	}, "Play", []Arg{{Name: "InstanceID", Value: "0"}})

	require.NoError(t, err)
	require.Equal(t, `text/xml; charset="utf-8"`, gotContentType)
	require.Equal(t, `"urn:schemas-upnp-org:service:AVTransport:1#Play"`, gotSoapAction)
}

func TestExecuteActionEmptyBody2xxIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(2 * time.Second)
	payload, err := client.ExecuteAction(context.Background(), Endpoint{
		ServiceType: ServiceTypeAVTransport,
		ControlURL:  srv.URL,
	}, "Stop", []Arg{{Name: "InstanceID", Value: "0"}})

	require.NoError(t, err)
	require.Empty(t, payload)
}

func TestExecuteActionMalformedBody2xxIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<not-even-soap"))
	}))
	defer srv.Close()

	client := NewClient(2 * time.Second)
	_, err := client.ExecuteAction(context.Background(), Endpoint{
		ServiceType: ServiceTypeAVTransport,
		ControlURL:  srv.URL,
	}, "Play", nil)

	require.NoError(t, err)
}

func TestExecuteActionSoapFault(t *testing.T) {
	fault := `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <s:Fault>
      <detail>
        <UPnPError xmlns="urn:schemas-upnp-org:control-1-0">
          <errorCode>716</errorCode>
          <errorDescription>Resource not found</errorDescription>
        </UPnPError>
      </detail>
    </s:Fault>
  </s:Body>
</s:Envelope>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fault))
	}))
	defer srv.Close()

	client := NewClient(2 * time.Second)
	_, err := client.ExecuteAction(context.Background(), Endpoint{
		ServiceType: ServiceTypeAVTransport,
		ControlURL:  srv.URL,
	}, "SetAVTransportURI", nil)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "716", rejected.Code)
	require.Equal(t, "Resource not found", rejected.Description)
	require.Equal(t, "SetAVTransportURI", rejected.Action)
}

func TestExecuteActionHTTPErrorWithoutFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(2 * time.Second)
	_, err := client.ExecuteAction(context.Background(), Endpoint{
		ServiceType: ServiceTypeAVTransport,
		ControlURL:  srv.URL,
	}, "Play", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	require.Contains(t, statusErr.Error(), "503")
}

func TestExecuteActionUnreachable(t *testing.T) {
	client := NewClient(500 * time.Millisecond)
	_, err := client.ExecuteAction(context.Background(), Endpoint{
		ServiceType: ServiceTypeAVTransport,
		ControlURL:  "http://127.0.0.1:1/control",
	}, "Play", nil)

	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
}
