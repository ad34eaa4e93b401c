package task

import (
	"fmt"
	"net/url"
)

// Level is the intrusiveness of a delivered notification, in ascending
// order. Critical delivery ignores the device's silence mode; that is
// the notifier's documented contract, nothing here enforces it.
type Level string

const (
	LevelPassive       Level = "passive"
	LevelActive        Level = "active"
	LevelTimeSensitive Level = "timeSensitive"
	LevelCritical      Level = "critical"
)

var Levels = []Level{LevelActive, LevelTimeSensitive, LevelPassive, LevelCritical}

func (l Level) Valid() bool {
	switch l {
	case LevelPassive, LevelActive, LevelTimeSensitive, LevelCritical:
		return true
	}
	return false
}

// Sounds is the catalogue offered by the form. "silent" delivers without
// audio.
var Sounds = []string{
	"default",
	"silent",
	"bell",
	"chime",
	"glass",
	"horn",
	"alarm",
}

// Notification is the per-routine push profile. Pure configuration: the
// client validates URL-shaped fields and otherwise hands it to the
// notifier untouched.
type Notification struct {
	Sound    string `json:"sound,omitempty"`
	Level    Level  `json:"level,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Image    string `json:"image,omitempty"`
	URL      string `json:"url,omitempty"`
	CallMode bool   `json:"callMode,omitempty"`
}

// Validate checks the profile before submit. Empty URL fields are fine;
// non-empty ones must parse as absolute http(s) URLs.
func (n *Notification) Validate() error {
	if n.Level != "" && !n.Level.Valid() {
		return fmt.Errorf("unknown notification level %q", n.Level)
	}
	for _, f := range []struct{ name, val string }{
		{"icon", n.Icon},
		{"image", n.Image},
		{"url", n.URL},
	} {
		if f.val == "" {
			continue
		}
		u, err := url.Parse(f.val)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("notification %s is not a valid http(s) url: %q", f.name, f.val)
		}
	}
	return nil
}
