package notify

import (
	"errors"
	"strings"
)

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// ErrUnknownChannel is returned when a channel value is not recognized.
// New channel values must be added to ShouldNotify explicitly.
var ErrUnknownChannel = errors.New("unknown notification channel")

// Preference holds a user's notification settings.
//
// Explicit maps a channel to an opt-in/opt-out decision; channels absent from
// the map fall back to country-based implicit defaults.
type Preference struct {
	Explicit map[Channel]bool
	Country  string
}

// ShouldNotify reports whether the channel should be used for this user.
//
// Rules, in order:
//  1. An explicit preference for the channel always wins.
//  2. Country "AK" suppresses every implicit channel.
//  3. Email is implicitly on everywhere. Country "MX" swaps SMS for
//     WhatsApp; everywhere else SMS is on and WhatsApp is off.
func ShouldNotify(pref Preference, ch Channel) (bool, error) {
	if !validChannel(ch) {
		return false, ErrUnknownChannel
	}

	if pref.Explicit != nil {
		if v, ok := pref.Explicit[ch]; ok {
			return v, nil
		}
	}

	country := strings.ToUpper(strings.TrimSpace(pref.Country))
	if country == "AK" {
		return false, nil
	}

	switch ch {
	case ChannelEmail:
		return true, nil
	case ChannelSMS:
		return country != "MX", nil
	case ChannelWhatsApp:
		return country == "MX", nil
	default:
		return false, ErrUnknownChannel
	}
}

func validChannel(ch Channel) bool {
	switch ch {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}
