package soap

import (
	"context"
	"strconv"
)

// Transport actions

func (c *Client) GetTransportInfo(ctx context.Context, endpoint Endpoint) (TransportInfo, error) {
	payload, err := c.ExecuteAction(ctx, endpoint, "GetTransportInfo", []Arg{
		{Name: "InstanceID", Value: "0"},
	})
	if err != nil {
		return TransportInfo{}, err
	}
	return parseTransportInfo(payload), nil
}

func (c *Client) GetPositionInfo(ctx context.Context, endpoint Endpoint) (PositionInfo, error) {
	payload, err := c.ExecuteAction(ctx, endpoint, "GetPositionInfo", []Arg{
		{Name: "InstanceID", Value: "0"},
	})
	if err != nil {
		return PositionInfo{}, err
	}
	return parsePositionInfo(payload), nil
}

func (c *Client) Play(ctx context.Context, endpoint Endpoint) error {
	_, err := c.ExecuteAction(ctx, endpoint, "Play", []Arg{
		{Name: "InstanceID", Value: "0"},
		{Name: "Speed", Value: "1"},
	})
	return err
}

func (c *Client) Pause(ctx context.Context, endpoint Endpoint) error {
	_, err := c.ExecuteAction(ctx, endpoint, "Pause", []Arg{
		{Name: "InstanceID", Value: "0"},
	})
	return err
}

func (c *Client) Stop(ctx context.Context, endpoint Endpoint) error {
	_, err := c.ExecuteAction(ctx, endpoint, "Stop", []Arg{
		{Name: "InstanceID", Value: "0"},
	})
	return err
}

func (c *Client) SetAVTransportURI(ctx context.Context, endpoint Endpoint, uri, metadata string) error {
	_, err := c.ExecuteAction(ctx, endpoint, "SetAVTransportURI", []Arg{
		{Name: "InstanceID", Value: "0"},
		{Name: "CurrentURI", Value: uri},
		{Name: "CurrentURIMetaData", Value: metadata},
	})
	return err
}

// Seek positions playback at the given offset using REL_TIME units.
func (c *Client) Seek(ctx context.Context, endpoint Endpoint, seconds int) error {
	_, err := c.ExecuteAction(ctx, endpoint, "Seek", []Arg{
		{Name: "InstanceID", Value: "0"},
		{Name: "Unit", Value: "REL_TIME"},
		{Name: "Target", Value: FormatClockTime(seconds)},
	})
	return err
}

// RenderingControl actions

func (c *Client) GetVolume(ctx context.Context, endpoint Endpoint) (VolumeInfo, error) {
	payload, err := c.ExecuteAction(ctx, endpoint, "GetVolume", []Arg{
		{Name: "InstanceID", Value: "0"},
		{Name: "Channel", Value: "Master"},
	})
	if err != nil {
		return VolumeInfo{}, err
	}
	return parseVolume(payload), nil
}

// SetVolume clamps level to [0,100] before transmitting.
func (c *Client) SetVolume(ctx context.Context, endpoint Endpoint, level int) error {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	_, err := c.ExecuteAction(ctx, endpoint, "SetVolume", []Arg{
		{Name: "InstanceID", Value: "0"},
		{Name: "Channel", Value: "Master"},
		{Name: "DesiredVolume", Value: strconv.Itoa(level)},
	})
	return err
}
