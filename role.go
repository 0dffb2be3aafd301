package drover

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser   Role = "user"
	RoleWorker Role = "worker"
	RoleTool   Role = "tool"
	RoleSystem Role = "system"
)
