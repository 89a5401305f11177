package ipfsapi

import (
	"regexp"
)

// CurrentCommit is the current git commit, this is set as a ldflag in the Makefile
var CurrentCommit string

// CurrentVersionNumber is the current application's version literal
const CurrentVersionNumber = "0.4.0-dev"

// MinimumDaemonVersion is the oldest daemon release whose RPC surface matches
// the commands this client issues.
const MinimumDaemonVersion = "0.4.0"

const maxVersionLen = 64

// GetUserAgentVersion is the User-Agent sent with every RPC request.
//
// Note: This will end in `/` when no commit is available. This is expected.
func GetUserAgentVersion() string {
	userAgent := "ipfsapi/" + CurrentVersionNumber + "/" + CurrentCommit
	if userAgentSuffix != "" {
		if CurrentCommit != "" {
			userAgent += "/"
		}
		userAgent += userAgentSuffix
	}
	return TrimVersion(userAgent)
}

var userAgentSuffix string
var onlyASCII = regexp.MustCompile("[[:^ascii:]]")

// SetUserAgentSuffix appends an application name to the User-Agent, for
// programs embedding this client.
func SetUserAgentSuffix(suffix string) {
	userAgentSuffix = TrimVersion(suffix)
}

func TrimVersion(version string) string {
	ascii := onlyASCII.ReplaceAllLiteralString(version, "")
	chars := 0
	for i := range ascii {
		if chars >= maxVersionLen {
			ascii = ascii[:i]
			break
		}
		chars++
	}
	return ascii
}
