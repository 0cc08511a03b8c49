package keychain

import (
	"fmt"
	"strings"
)

// Accessibility controls when an item's payload is readable.
type Accessibility string

const (
	AccessibleWhenUnlocked                   Accessibility = "ak"
	AccessibleAfterFirstUnlock               Accessibility = "ck"
	AccessibleAlways                         Accessibility = "dk"
	AccessibleWhenPasscodeSetThisDeviceOnly  Accessibility = "akpu"
	AccessibleWhenUnlockedThisDeviceOnly     Accessibility = "aku"
	AccessibleAfterFirstUnlockThisDeviceOnly Accessibility = "cku"
	AccessibleAlwaysThisDeviceOnly           Accessibility = "dku"
)

var accessibilityNames = map[string]Accessibility{
	"when-unlocked":                       AccessibleWhenUnlocked,
	"after-first-unlock":                  AccessibleAfterFirstUnlock,
	"always":                              AccessibleAlways,
	"when-passcode-set-this-device-only":  AccessibleWhenPasscodeSetThisDeviceOnly,
	"when-unlocked-this-device-only":      AccessibleWhenUnlockedThisDeviceOnly,
	"after-first-unlock-this-device-only": AccessibleAfterFirstUnlockThisDeviceOnly,
	"always-this-device-only":             AccessibleAlwaysThisDeviceOnly,
}

// ParseAccessibility maps a kebab-case name such as "when-unlocked" to its
// Accessibility. The empty string maps to the empty (unset) value.
func ParseAccessibility(name string) (Accessibility, error) {
	if name == "" {
		return "", nil
	}
	a, ok := accessibilityNames[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown accessibility %q", name)
	}
	return a, nil
}

// Sync is a tri-state synchronizable flag. The zero value leaves the
// attribute out of every query.
type Sync int

const (
	SyncUnset Sync = iota
	SyncYes
	SyncNo
)

// Protocol is the internet-password protocol attribute (a FourCharCode).
type Protocol string

const (
	ProtocolFTP        Protocol = "ftp "
	ProtocolFTPAccount Protocol = "ftpa"
	ProtocolHTTP       Protocol = "http"
	ProtocolIRC        Protocol = "irc "
	ProtocolNNTP       Protocol = "nntp"
	ProtocolPOP3       Protocol = "pop3"
	ProtocolSMTP       Protocol = "smtp"
	ProtocolSOCKS      Protocol = "sox "
	ProtocolIMAP       Protocol = "imap"
	ProtocolLDAP       Protocol = "ldap"
	ProtocolAppleTalk  Protocol = "atlk"
	ProtocolAFP        Protocol = "afp "
	ProtocolTelnet     Protocol = "teln"
	ProtocolSSH        Protocol = "ssh "
	ProtocolFTPS       Protocol = "ftps"
	ProtocolHTTPS      Protocol = "htps"
	ProtocolHTTPProxy  Protocol = "htpx"
	ProtocolHTTPSProxy Protocol = "htsx"
	ProtocolFTPProxy   Protocol = "ftpx"
	ProtocolSMB        Protocol = "smb "
	ProtocolRTSP       Protocol = "rtsp"
	ProtocolRTSPProxy  Protocol = "rtsx"
	ProtocolDAAP       Protocol = "daap"
	ProtocolEPPC       Protocol = "eppc"
	ProtocolIPP        Protocol = "ipp "
	ProtocolNNTPS      Protocol = "ntps"
	ProtocolLDAPS      Protocol = "ldps"
	ProtocolTelnetS    Protocol = "tels"
	ProtocolIMAPS      Protocol = "imps"
	ProtocolIRCS       Protocol = "ircs"
	ProtocolPOP3S      Protocol = "pops"
)

var protocolByScheme = map[string]Protocol{
	"ftp":     ProtocolFTP,
	"http":    ProtocolHTTP,
	"irc":     ProtocolIRC,
	"nntp":    ProtocolNNTP,
	"pop3":    ProtocolPOP3,
	"pop":     ProtocolPOP3,
	"smtp":    ProtocolSMTP,
	"socks":   ProtocolSOCKS,
	"imap":    ProtocolIMAP,
	"ldap":    ProtocolLDAP,
	"afp":     ProtocolAFP,
	"telnet":  ProtocolTelnet,
	"ssh":     ProtocolSSH,
	"ftps":    ProtocolFTPS,
	"https":   ProtocolHTTPS,
	"smb":     ProtocolSMB,
	"rtsp":    ProtocolRTSP,
	"daap":    ProtocolDAAP,
	"eppc":    ProtocolEPPC,
	"ipp":     ProtocolIPP,
	"nntps":   ProtocolNNTPS,
	"ldaps":   ProtocolLDAPS,
	"telnets": ProtocolTelnetS,
	"imaps":   ProtocolIMAPS,
	"ircs":    ProtocolIRCS,
	"pop3s":   ProtocolPOP3S,
}

// AuthenticationType is the internet-password authentication attribute.
type AuthenticationType string

const (
	AuthNTLM       AuthenticationType = "ntlm"
	AuthMSN        AuthenticationType = "msna"
	AuthDPA        AuthenticationType = "dpaa"
	AuthRPA        AuthenticationType = "rpaa"
	AuthHTTPBasic  AuthenticationType = "http"
	AuthHTTPDigest AuthenticationType = "httd"
	AuthHTMLForm   AuthenticationType = "form"
	AuthDefault    AuthenticationType = "dflt"
)

// Attributes are the optional item attributes shared by both identity
// kinds. Zero fields are unset and never sent to the backend.
type Attributes struct {
	AccessGroup    string
	Accessibility  Accessibility
	Synchronizable Sync
	Label          string
	Comment        string
	// Description is shown as the item's "Kind" by Keychain Access.
	Description string
	Invisible   bool
	Negative    bool
}

// merge returns a with every set field of over applied on top.
func (a Attributes) merge(over Attributes) Attributes {
	if over.AccessGroup != "" {
		a.AccessGroup = over.AccessGroup
	}
	if over.Accessibility != "" {
		a.Accessibility = over.Accessibility
	}
	if over.Synchronizable != SyncUnset {
		a.Synchronizable = over.Synchronizable
	}
	if over.Label != "" {
		a.Label = over.Label
	}
	if over.Comment != "" {
		a.Comment = over.Comment
	}
	if over.Description != "" {
		a.Description = over.Description
	}
	a.Invisible = a.Invisible || over.Invisible
	a.Negative = a.Negative || over.Negative
	return a
}
