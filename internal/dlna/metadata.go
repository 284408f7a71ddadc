package dlna

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// GenerateDIDLMetadata builds the DIDL-Lite fragment passed as
// CurrentURIMetaData. duration is optional ("H:MM:SS" or empty); some
// renderers use it to seed their progress display.
func GenerateDIDLMetadata(title, mimeType, uri, duration string) string {
	var res string
	if duration != "" {
		res = fmt.Sprintf(`<res protocolInfo="http-get:*:%s:*" duration="%s">%s</res>`,
			mimeType, duration, escape(uri))
	} else {
		res = fmt.Sprintf(`<res protocolInfo="http-get:*:%s:*">%s</res>`,
			mimeType, escape(uri))
	}

	return `<DIDL-Lite xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/"` +
		` xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/">` +
		`<item id="0" parentID="-1" restricted="1">` +
		`<dc:title>` + escape(title) + `</dc:title>` +
		`<upnp:class>object.item.videoItem</upnp:class>` +
		res +
		`</item></DIDL-Lite>`
}

func escape(input string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(input)); err != nil {
		return input
	}
	return b.String()
}
