// Package domain contains entity without logic, just meta-data
package domain

import "github.com/pion/webrtc/v4"

type (
	SessionID    string
	SessionToken string
)

// RTCConfig is the configuration handed to the browser's RTCPeerConnection.
// webrtc.ICEServer marshals with the same field names the browser expects.
type RTCConfig struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

// StreamSession is the record of the currently active avatar stream.
// At most one is live per process; ownership lives in app.SessionStore.
type StreamSession struct {
	ID         SessionID
	Token      SessionToken
	OfferSDP   string
	RTCConfig  RTCConfig
	AvatarName string
}
