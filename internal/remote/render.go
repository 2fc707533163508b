package remote

// Renderer is the presentation side of the remote. The engine pushes every
// visible change through it and never inspects widgets directly.
type Renderer interface {
	SetStatus(text string)
	SetConnectButton(label string, enabled bool)
	SetControlsEnabled(enabled bool)
	ShowAck(ch ChannelID)
	RenderValue(ch ChannelID, v Value)
	RenderMute(muted bool)
}

// ValueReader reads the value the panel currently shows for a channel.
type ValueReader interface {
	Value(ch ChannelID) Value
}
