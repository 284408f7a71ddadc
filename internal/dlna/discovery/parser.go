package discovery

import (
	"encoding/xml"
	"net/url"
	"strings"
)

// ServiceEntry is one service advertised by a device description.
type ServiceEntry struct {
	ServiceType string
	ControlURL  string
	EventSubURL string
}

// DeviceDescription is the subset of a UPnP device description this
// engine needs to drive a renderer.
type DeviceDescription struct {
	FriendlyName string
	Manufacturer string
	ModelName    string
	UDN          string
	Services     []ServiceEntry
}

// ParseDeviceDescription extracts identity and service endpoints from a
// device description document. Control URLs are resolved against the
// description URL; renderers publish them absolute, host-relative or
// relative depending on vendor.
func ParseDeviceDescription(xmlPayload []byte, descriptionURL string) (*DeviceDescription, error) {
	base, err := url.Parse(descriptionURL)
	if err != nil {
		return nil, err
	}

	decoder := xml.NewDecoder(strings.NewReader(string(xmlPayload)))
	var desc DeviceDescription
	var current *ServiceEntry

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "friendlyName":
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil && desc.FriendlyName == "" {
					desc.FriendlyName = strings.TrimSpace(value)
				}
			case "manufacturer":
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil && desc.Manufacturer == "" {
					desc.Manufacturer = strings.TrimSpace(value)
				}
			case "modelName":
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil && desc.ModelName == "" {
					desc.ModelName = strings.TrimSpace(value)
				}
			case "UDN":
				// Only take the FIRST UDN (root device); embedded devices
				// repeat the element with suffixed values.
				if desc.UDN == "" {
					var value string
					if err := decoder.DecodeElement(&value, &se); err == nil {
						desc.UDN = strings.TrimPrefix(strings.TrimSpace(value), "uuid:")
					}
				}
			case "service":
				desc.Services = append(desc.Services, ServiceEntry{})
				current = &desc.Services[len(desc.Services)-1]
			case "serviceType":
				if current != nil {
					var value string
					if err := decoder.DecodeElement(&value, &se); err == nil {
						current.ServiceType = strings.TrimSpace(value)
					}
				}
			case "controlURL":
				if current != nil {
					var value string
					if err := decoder.DecodeElement(&value, &se); err == nil {
						current.ControlURL = resolveURL(base, strings.TrimSpace(value))
					}
				}
			case "eventSubURL":
				if current != nil {
					var value string
					if err := decoder.DecodeElement(&value, &se); err == nil {
						current.EventSubURL = resolveURL(base, strings.TrimSpace(value))
					}
				}
			}
		case xml.EndElement:
			if se.Name.Local == "service" {
				current = nil
			}
		}
	}

	return &desc, nil
}

// FindService returns the first service whose type matches, ignoring the
// trailing version component so a ":2" renderer still matches a ":1" ask.
func (d *DeviceDescription) FindService(serviceType string) *ServiceEntry {
	want := trimServiceVersion(serviceType)
	for i := range d.Services {
		if trimServiceVersion(d.Services[i].ServiceType) == want {
			return &d.Services[i]
		}
	}
	return nil
}

func trimServiceVersion(serviceType string) string {
	idx := strings.LastIndexByte(serviceType, ':')
	if idx < 0 {
		return serviceType
	}
	return serviceType[:idx]
}

func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
