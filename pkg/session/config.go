package session

type configuration struct {
	// DiffLoggingEnabled logs a JSON patch of every merged partial update
	DiffLoggingEnabled bool
	// InvitationsLimit drops the oldest pending invitations above the limit, 0 means no limit
	InvitationsLimit int
}

var defaultConfig = configuration{
	DiffLoggingEnabled: true,
	InvitationsLimit:   0,
}
