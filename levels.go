package access

// AccessLevel is the tier of access a contributor holds on a resource.
// Levels form a total order: read < write < admin. Any actor cleared for a
// level is cleared for every lower level.
type AccessLevel string

const (
	// AccessLevelRead allows viewing a resource.
	AccessLevelRead AccessLevel = "read"
	// AccessLevelWrite allows viewing and modifying a resource.
	AccessLevelWrite AccessLevel = "write"
	// AccessLevelAdmin allows viewing, modifying, and managing contributors.
	AccessLevelAdmin AccessLevel = "admin"
)

// IsValid checks if the level is one of the predefined valid levels
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessLevelRead, AccessLevelWrite, AccessLevelAdmin:
		return true
	default:
		return false
	}
}

// Satisfies checks if this level meets the minimum required level
func (l AccessLevel) Satisfies(required AccessLevel) bool {
	levelHierarchy := map[AccessLevel]int{
		AccessLevelRead:  0,
		AccessLevelWrite: 1,
		AccessLevelAdmin: 2,
	}

	currentLevel, exists := levelHierarchy[l]
	if !exists {
		return false
	}

	requiredLevel, exists := levelHierarchy[required]
	if !exists {
		return false
	}

	return currentLevel >= requiredLevel
}

// AllAccessLevels returns all predefined levels in hierarchical order
func AllAccessLevels() []AccessLevel {
	return []AccessLevel{
		AccessLevelRead,
		AccessLevelWrite,
		AccessLevelAdmin,
	}
}

// ParseAccessLevel safely parses a string into an AccessLevel type
func ParseAccessLevel(raw string) (AccessLevel, bool) {
	level := AccessLevel(raw)
	return level, level.IsValid()
}

// denialFor maps a required level to its level-specific denial.
func denialFor(required AccessLevel) error {
	switch required {
	case AccessLevelAdmin:
		return ErrAdminRequired
	case AccessLevelWrite:
		return ErrWriteRequired
	default:
		return ErrReadRequired
	}
}
