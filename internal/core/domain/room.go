package domain

// JoinResult reports what a join changed in the registry.
type JoinResult struct {
	Added   bool // session was not a member before
	Created bool // room did not exist before
}

// LeaveResult reports what a leave changed in the registry.
// Remaining is the membership right after the removal, taken under the
// room's lock, so fan-out never reaches sessions that joined later.
type LeaveResult struct {
	Room      RoomID
	Removed   bool // session was a member
	Deleted   bool // room became empty and was discarded
	Remaining []SessionID
}

// PublishResult reports delivery stats of one fan-out.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}
