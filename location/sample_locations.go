package location

// Sample UN locodes.
var (
	USEWR UNLcode = "USEWR"
	USOAK UNLcode = "USOAK"
	GBLON UNLcode = "GBLON"
	NLRTM UNLcode = "NLRTM"
	CNSHA UNLcode = "CNSHA"
	SGSIN UNLcode = "SGSIN"
	BRSSZ UNLcode = "BRSSZ"
	AUMEL UNLcode = "AUMEL"
)

// Sample ports.
var (
	Elizabeth = &Location{USEWR, "Elizabeth, NJ"}
	Oakland   = &Location{USOAK, "Oakland, CA"}
	London    = &Location{GBLON, "London, GB"}
	Rotterdam = &Location{NLRTM, "Rotterdam, NL"}
	Shanghai  = &Location{CNSHA, "Shanghai, CN"}
	Singapore = &Location{SGSIN, "Singapore, SG"}
	Santos    = &Location{BRSSZ, "Santos, BR"}
	Melbourne = &Location{AUMEL, "Melbourne, AU"}
)
