package tracking

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultSpace is the space used by Pipeline.Default.
	DefaultSpace = "Default"
	// DefaultLanguage is reported when no language is configured.
	DefaultLanguage = "EN"
	// DefaultTrackerURL is the collector endpoint template; %1$s is replaced by the api key.
	DefaultTrackerURL = "http://tracker.honeytracks.com/?ApiKey=%1$s"
	// AnonymousCustomer is reported when no customer identifier is configured.
	AnonymousCustomer = "NO_UNIQUE_CUSTOMER_IDENTIFIER"
)

// Standard parameter names appended to every event.
const (
	ParamUniqueCustomerIdentifier = "UniqueCustomerIdentifier"
	ParamLanguage                 = "Language"
	ParamVersion                  = "Version"
	ParamClientIP                 = "ClientIP"
	ParamSpace                    = "Space"
	ParamTimestamp                = "Timestamp"
	ParamUniqueCustomerSubToken   = "UniqueCustomerSubToken"
)

// Settings holds the identity and context reported with every event.
//
// Validated fields are only reachable through setters. A setter that rejects
// its input returns a *ConfigError and leaves the previous value in place.
// Settings is a value type; trackers hold their own copy.
type Settings struct {
	apiKey    string
	secretKey string
	timestamp int64

	language string
	clientIP string

	// TrackerURL is the collector endpoint template.
	TrackerURL string
	// UniqueCustomerIdentifier identifies the end user.
	UniqueCustomerIdentifier string
	// UniqueCustomerSubToken distinguishes several accounts of one user.
	UniqueCustomerSubToken string
	// Version is the application version.
	Version string
	// Space is the distribution channel, e.g. a game world.
	Space string
	// AutoTimestamp stamps every event with the current time even when a
	// fixed timestamp is set.
	AutoTimestamp bool
}

// NewSettings returns settings with the default tracker URL, language and space.
func NewSettings() Settings {
	return Settings{
		TrackerURL: DefaultTrackerURL,
		language:   DefaultLanguage,
		Space:      DefaultSpace,
	}
}

func (s Settings) APIKey() string    { return s.apiKey }
func (s Settings) SecretKey() string { return s.secretKey }
func (s Settings) Timestamp() int64  { return s.timestamp }
func (s Settings) Language() string  { return s.language }

// ClientIP returns the masked client address.
func (s Settings) ClientIP() string { return s.clientIP }

// SetAPIKey sets the collector api key: 32 to 40 lowercase hex characters.
func (s *Settings) SetAPIKey(key string) error {
	if err := apply(matchesKey("ApiKey", key, ErrInvalidAPIKey)); err != nil {
		return err
	}
	s.apiKey = key
	return nil
}

// SetSecretKey sets the collector secret key: 32 to 40 lowercase hex characters.
func (s *Settings) SetSecretKey(key string) error {
	if err := apply(matchesKey("SecretKey", key, ErrInvalidSecretKey)); err != nil {
		return err
	}
	s.secretKey = key
	return nil
}

// SetTimestamp sets a fixed event timestamp in Unix seconds.
// Zero clears it; other values must be later than MinTimestamp.
func (s *Settings) SetTimestamp(ts int64) error {
	if ts != 0 {
		if err := apply(timestampAfter("Timestamp", ts, MinTimestamp)); err != nil {
			return err
		}
	}
	s.timestamp = ts
	return nil
}

// SetLanguage sets the application language, e.g. "deu" or "de_DE".
func (s *Settings) SetLanguage(lang string) error {
	if err := apply(languageTag("Language", lang)); err != nil {
		return err
	}
	s.language = lang
	return nil
}

// SetClientIP sets the client address. It is stored masked, see MaskIP.
func (s *Settings) SetClientIP(ip string) error {
	ip = strings.TrimSpace(ip)
	if err := apply(ipAddress("ClientIP", ip)); err != nil {
		return err
	}
	s.clientIP = MaskIP(ip)
	return nil
}

// EventTimestamp resolves the timestamp of an event created at now.
// The fixed timestamp wins only when it is set and AutoTimestamp is off.
// It never modifies s.
func (s Settings) EventTimestamp(now time.Time) int64 {
	if s.timestamp != 0 && !s.AutoTimestamp {
		return s.timestamp
	}
	return now.Unix()
}

// Params returns the standard parameters for an event created at now.
func (s Settings) Params(now time.Time) Fields {
	return Fields{
		{Key: ParamUniqueCustomerIdentifier, Value: s.UniqueCustomerIdentifier},
		{Key: ParamLanguage, Value: s.language},
		{Key: ParamVersion, Value: s.Version},
		{Key: ParamClientIP, Value: s.clientIP},
		{Key: ParamSpace, Value: s.Space},
		{Key: ParamTimestamp, Value: strconv.FormatInt(s.EventTimestamp(now), 10)},
		{Key: ParamUniqueCustomerSubToken, Value: s.UniqueCustomerSubToken},
	}
}

// Endpoint returns the collector URL with the api key substituted.
func (s Settings) Endpoint() string {
	tpl := s.TrackerURL
	if tpl == "" {
		tpl = DefaultTrackerURL
	}
	return strings.ReplaceAll(tpl, "%1$s", s.apiKey)
}

// withSpace returns a copy bound to space name.
func (s Settings) withSpace(name string) Settings {
	s.Space = name
	return s
}
