package listing

// Platform identifies one external marketplace
type Platform string

const (
	// PlatformMarktplaats is the Marktplaats marketplace (official API)
	PlatformMarktplaats Platform = "marktplaats"
	// PlatformVinted is the Vinted marketplace (browser automation)
	PlatformVinted Platform = "vinted"
	// PlatformDepop is the Depop marketplace (browser automation)
	PlatformDepop Platform = "depop"
	// PlatformFacebook is Facebook Marketplace (browser automation)
	PlatformFacebook Platform = "facebook_marketplace"
)

// AllPlatforms lists every supported platform
func AllPlatforms() []Platform {
	return []Platform{PlatformMarktplaats, PlatformVinted, PlatformDepop, PlatformFacebook}
}

// IsValid returns true if the platform is supported
func (p Platform) IsValid() bool {
	switch p {
	case PlatformMarktplaats, PlatformVinted, PlatformDepop, PlatformFacebook:
		return true
	default:
		return false
	}
}

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// DisplayName returns a human-readable name for the platform
func (p Platform) DisplayName() string {
	switch p {
	case PlatformMarktplaats:
		return "Marktplaats"
	case PlatformVinted:
		return "Vinted"
	case PlatformDepop:
		return "Depop"
	case PlatformFacebook:
		return "Facebook Marketplace"
	default:
		return string(p)
	}
}
