package tracking

import (
	"errors"
	"net/netip"
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// MinTimestamp is the earliest accepted fixed timestamp (2010-01-01 CET), in Unix seconds.
const MinTimestamp int64 = 1262300400

var keyPattern = regexp.MustCompile(`^[a-f0-9]{32,40}$`)

// rule pairs a check with the error reported when the check fails.
type rule struct {
	check func() bool
	err   *ConfigError
}

// apply runs every rule and joins the errors of those that failed.
func apply(rules ...rule) error {
	var errs []error
	for _, r := range rules {
		if !r.check() {
			errs = append(errs, r.err)
		}
	}
	return errors.Join(errs...)
}

func matchesKey(field, value string, sentinel error) rule {
	return rule{
		check: func() bool { return keyPattern.MatchString(value) },
		err:   newConfigError(field, "must be 32-40 lowercase hex characters", sentinel),
	}
}

func timestampAfter(field string, value, min int64) rule {
	return rule{
		check: func() bool { return value > min },
		err:   newConfigError(field, "must be a unix timestamp after 2010-01-01", ErrInvalidTimestamp),
	}
}

func languageTag(field, value string) rule {
	return rule{
		check: func() bool {
			if value == "" {
				return true
			}
			_, err := language.Parse(value)
			return err == nil
		},
		err: newConfigError(field, "must be an ISO 639 code or a language_TERRITORY locale", ErrInvalidLanguage),
	}
}

func ipAddress(field, value string) rule {
	return rule{
		check: func() bool {
			if value == "" {
				return true
			}
			_, err := netip.ParseAddr(value)
			return err == nil
		},
		err: newConfigError(field, "must be an IPv4 or IPv6 address", ErrInvalidClientIP),
	}
}

func positive(field string, value int) rule {
	return rule{
		check: func() bool { return value > 0 },
		err:   newConfigError(field, "must be greater than zero", ErrInvalidOption),
	}
}

func notNegative(field string, value int64) rule {
	return rule{
		check: func() bool { return value >= 0 },
		err:   newConfigError(field, "must not be negative", ErrInvalidOption),
	}
}

func notBlank(field, value string) rule {
	return rule{
		check: func() bool { return strings.TrimSpace(value) != "" },
		err:   newConfigError(field, "must not be empty", ErrInvalidOption),
	}
}

// MaskIP zeroes the host part of an address: the last octet of an IPv4
// address or the last 80 bits of an IPv6 address. Invalid input is
// returned unchanged.
func MaskIP(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}
	bits := 48
	if addr.Is4() || addr.Is4In6() {
		addr = addr.Unmap()
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return ip
	}
	return prefix.Addr().String()
}
