// Package location names the seaports vessels sail between.
package location

// Port identifies a seaport by its display name, e.g. "Shanghai, CN".
type Port string

// UNLcode is the UN/LOCODE of a port.
type UNLcode string

// Location is a port vessels call at.
type Location struct {
	UNLcode UNLcode
	Port    Port
}
